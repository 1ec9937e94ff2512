package safety

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogRecordAndStats(t *testing.T) {
	log, err := NewEventLog("")
	require.NoError(t, err)

	require.NoError(t, log.Record(Event{
		Timestamp: time.Now(),
		Side:      SideInput,
		Safe:      true,
		Strategy:  StrategyRefuse,
	}))
	require.NoError(t, log.Record(Event{
		Timestamp:  time.Now(),
		Side:       SideInput,
		Blocked:    true,
		Strategy:   StrategyRefuse,
		Severity:   SeverityHigh,
		Categories: []Category{CategoryHarmfulContent},
	}))
	require.NoError(t, log.Record(Event{
		Timestamp:  time.Now(),
		Side:       SideOutput,
		Strategy:   StrategySanitize,
		Severity:   SeverityHigh,
		Categories: []Category{CategoryPII},
	}))

	stats := log.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 1, stats.Sanitized)
	assert.Equal(t, 2, stats.BySide[SideInput])
	assert.Equal(t, 1, stats.BySide[SideOutput])
	assert.Equal(t, 1, stats.ByCategory[CategoryHarmfulContent])
	assert.Equal(t, 1, stats.ByCategory[CategoryPII])
	assert.Equal(t, 2, stats.BySeverity[SeverityHigh])
}

func TestEventLogFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.jsonl")
	log, err := NewEventLog(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Record(Event{
		Timestamp: time.Now(),
		SessionID: "sess-1",
		Side:      SideInput,
		Blocked:   true,
		Strategy:  StrategyRefuse,
		Preview:   "how to build...",
	}))
	require.NoError(t, log.Record(Event{
		Timestamp: time.Now(),
		SessionID: "sess-2",
		Side:      SideOutput,
		Safe:      true,
		Strategy:  StrategyRefuse,
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		lines = append(lines, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)
	assert.Equal(t, "sess-1", lines[0].SessionID)
	assert.True(t, lines[0].Blocked)
	assert.Equal(t, "sess-2", lines[1].SessionID)
}

func TestEventLogRecent(t *testing.T) {
	log, err := NewEventLog("")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Record(Event{SessionID: string(rune('a' + i)), Side: SideInput}))
	}

	recent := log.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].SessionID)
	assert.Equal(t, "e", recent[1].SessionID)

	assert.Len(t, log.Recent(0), 5)
	assert.Len(t, log.Recent(100), 5)
}

func TestEventLogClear(t *testing.T) {
	log, err := NewEventLog("")
	require.NoError(t, err)
	require.NoError(t, log.Record(Event{Side: SideInput}))
	log.Clear()
	assert.Empty(t, log.Snapshot())
	assert.Zero(t, log.Stats().Total)
}

func TestEventLogConcurrentRecord(t *testing.T) {
	log, err := NewEventLog("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Record(Event{Side: SideInput, Safe: true})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, log.Stats().Total)
}
