package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event is one recorded gate decision. Exactly one event is written per
// enforcement call regardless of how many violations it found.
type Event struct {
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"session_id,omitempty"`
	Side       Side       `json:"side"`
	Safe       bool       `json:"safe"`
	Blocked    bool       `json:"blocked"`
	Strategy   Strategy   `json:"strategy"`
	Severity   Severity   `json:"severity,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Reasons    []string   `json:"reasons,omitempty"`

	// Preview is a bounded sample of the checked text.
	Preview string `json:"preview"`
}

// Stats summarizes the event log.
type Stats struct {
	Total      int              `json:"total"`
	Blocked    int              `json:"blocked"`
	Sanitized  int              `json:"sanitized"`
	BySide     map[Side]int     `json:"by_side"`
	ByCategory map[Category]int `json:"by_category"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// EventLog keeps gate decisions in memory and optionally appends them as
// JSON lines to a file. All methods are safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	file   *os.File
}

// NewEventLog creates an in-memory log. If path is non-empty the log also
// appends each event to the file at that path.
func NewEventLog(path string) (*EventLog, error) {
	log := &EventLog{}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open safety event log: %w", err)
		}
		log.file = f
	}
	return log, nil
}

// Record appends one event. File write failures are returned but the
// in-memory record is always kept.
func (l *EventLog) Record(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, ev)
	if l.file == nil {
		return nil
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode safety event: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append safety event: %w", err)
	}
	return nil
}

// Snapshot returns a copy of all recorded events, oldest first.
func (l *EventLog) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Recent returns up to n most recent events, oldest first.
func (l *EventLog) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Stats aggregates the recorded events.
func (l *EventLog) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{
		BySide:     make(map[Side]int),
		ByCategory: make(map[Category]int),
		BySeverity: make(map[Severity]int),
	}
	for _, ev := range l.events {
		stats.Total++
		stats.BySide[ev.Side]++
		if ev.Blocked {
			stats.Blocked++
		}
		if !ev.Safe && !ev.Blocked {
			stats.Sanitized++
		}
		if ev.Severity != "" {
			stats.BySeverity[ev.Severity]++
		}
		for _, c := range ev.Categories {
			stats.ByCategory[c]++
		}
	}
	return stats
}

// Clear drops all in-memory events. The backing file is untouched.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Close releases the backing file, if any.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
