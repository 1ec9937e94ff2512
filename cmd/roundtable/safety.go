package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/seaforthlabs/roundtable/internal/safety"
)

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Inspect the safety gate of a running server",
}

var safetyLimit int

func init() {
	safetyEventsCmd.Flags().IntVar(&safetyLimit, "limit", 20, "number of events to fetch")
	safetyCmd.AddCommand(safetyEventsCmd)
	safetyCmd.AddCommand(safetyStatsCmd)
}

var safetyEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent safety gate decisions",
	Long: `List recent safety gate decisions from a running server.

Examples:
  # Show the last 20 decisions
  roundtable safety events

  # Show more, from a different server
  roundtable safety events --limit 100 --server http://localhost:9090`,
	RunE: runSafetyEvents,
}

var safetyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate safety gate statistics",
	RunE:  runSafetyStats,
}

// healthCmd checks server health.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check roundtable server health",
	RunE:  runHealth,
}

func apiGet(path string, out interface{}) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runSafetyEvents(cmd *cobra.Command, args []string) error {
	var events []safety.Event
	if err := apiGet(fmt.Sprintf("/api/v1/safety/events?limit=%d", safetyLimit), &events); err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no safety events recorded")
		return nil
	}
	for _, ev := range events {
		verdict := "safe"
		if ev.Blocked {
			verdict = "blocked"
		} else if !ev.Safe {
			verdict = "sanitized"
		}
		fmt.Printf("%s  %-6s  %-9s  %v  %q\n",
			ev.Timestamp.Format(time.RFC3339), ev.Side, verdict, ev.Categories, ev.Preview)
	}
	return nil
}

func runSafetyStats(cmd *cobra.Command, args []string) error {
	var stats safety.Stats
	if err := apiGet("/api/v1/safety/stats", &stats); err != nil {
		return err
	}
	fmt.Printf("total: %d  blocked: %d  sanitized: %d\n", stats.Total, stats.Blocked, stats.Sanitized)
	for category, n := range stats.ByCategory {
		fmt.Printf("  %-24s %d\n", category, n)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := apiGet("/health", &health); err != nil {
		return err
	}
	fmt.Printf("server is %s\n", health.Status)
	return nil
}
