package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/judge"
)

var (
	askShowTurns bool
	askEvaluate  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a research query locally",
	Long: `Run one research session in-process and print the answer.

Examples:
  # Ask a question
  roundtable ask "How do users adapt to gesture interfaces?"

  # Show the full role transcript
  roundtable ask --turns "How do users adapt to gesture interfaces?"

  # Score the answer with the judge model
  roundtable ask --evaluate "How do users adapt to gesture interfaces?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowTurns, "turns", false, "print the full role transcript")
	askCmd.Flags().BoolVar(&askEvaluate, "evaluate", false, "score the answer with the judge model")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := buildApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	result := app.service.HandleQuery(cmd.Context(), args[0])

	if askShowTurns {
		for _, turn := range result.Turns {
			fmt.Printf("--- %s ---\n%s\n\n", turn.Role, turn.Content)
		}
	}

	switch result.Status {
	case conversation.StatusDone:
		fmt.Println(result.Answer)
	case conversation.StatusSafetyBlocked:
		fmt.Println(result.Answer)
		for _, v := range result.Violations {
			fmt.Printf("  [%s/%s] %s\n", v.Category, v.Severity, v.Reason)
		}
	default:
		return fmt.Errorf("%s (%d rounds, %s)", result.Message, result.Rounds, result.Elapsed.Round(time.Millisecond))
	}

	if askEvaluate && result.Status == conversation.StatusDone {
		return evaluateAnswer(cmd.Context(), app, result.Query, result.Answer)
	}
	return nil
}

// evaluateAnswer scores the released answer and prints the breakdown.
func evaluateAnswer(ctx context.Context, app *application, query, answer string) error {
	j := judge.New(app.gen, nil, app.logger)
	eval, err := j.Evaluate(ctx, query, answer, nil, "")
	if err != nil {
		return fmt.Errorf("evaluate answer: %w", err)
	}

	fmt.Printf("\nOverall score: %.2f\n", eval.OverallScore)
	for name, score := range eval.CriterionScores {
		reason := score.Reasoning
		if len(reason) > 120 {
			reason = reason[:120] + "..."
		}
		fmt.Printf("  %-18s %.2f  %s\n", name, score.Score, reason)
	}
	return nil
}
