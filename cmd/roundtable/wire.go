package main

import (
	"context"
	"fmt"

	"github.com/seaforthlabs/roundtable/internal/agent"
	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/config"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/orchestrator"
	"github.com/seaforthlabs/roundtable/internal/safety"
	"github.com/seaforthlabs/roundtable/internal/tools"
)

// application bundles the wired components behind the CLI commands.
type application struct {
	cfg     *config.Config
	logger  *logging.Logger
	service *orchestrator.Service
	events  *safety.EventLog
	gen     backend.Generator
}

// buildApplication wires the full query pipeline from configuration.
func buildApplication(cfg *config.Config, logger *logging.Logger) (*application, error) {
	client, err := backend.NewClient(cfg.Models.Default)
	if err != nil {
		return nil, fmt.Errorf("init model backend: %w", err)
	}

	// Transient backend failures are retried before reaching the executor.
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return backend.Retry(ctx, cfg.Retry, logger, func() (string, error) {
			return client.Generate(ctx, prompt)
		})
	})

	var classifier safety.Classifier
	if cfg.Safety.UseClassifier {
		classifier = safety.NewLLMClassifier(gen, cfg.System.Topic)
	}

	events, err := safety.NewEventLog(cfg.Safety.EventLogPath)
	if err != nil {
		return nil, fmt.Errorf("init safety event log: %w", err)
	}

	input := safety.NewInputValidator(cfg.System.Topic, cfg.Safety.Prohibited, classifier, logger)
	output := safety.NewOutputValidator(cfg.Safety.Prohibited, classifier, logger)
	gate := safety.NewGate(input, output, cfg.Safety.GateConfig(), events, logger)

	registry, err := buildTools(cfg.Tools)
	if err != nil {
		return nil, err
	}

	orchCfg := orchestrator.Config{
		MaxRounds:       cfg.System.MaxRounds,
		Timeout:         cfg.System.Timeout,
		MaxContextTurns: cfg.System.MaxContextTurns,
	}
	metrics := orchestrator.NewMetrics(logger.Underlying())
	team := agent.NewTeam(gen, registry, cfg.System.Topic, cfg.System.MaxContextTurns, logger)
	exec := orchestrator.NewExecutor(team, orchCfg, logger, metrics)
	service := orchestrator.NewService(gate, exec, orchCfg, logger, metrics)

	return &application{
		cfg:     cfg,
		logger:  logger,
		service: service,
		events:  events,
		gen:     gen,
	}, nil
}

// buildTools assembles the researcher's tool registry from configuration.
func buildTools(cfg config.ToolsConfig) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if cfg.WebSearch.Enabled {
		ws, err := tools.NewWebSearch(cfg.WebSearch.MaxResults)
		if err != nil {
			return nil, fmt.Errorf("init web search: %w", err)
		}
		registry.Register(ws)
	}
	if cfg.PaperSearch.Enabled {
		registry.Register(tools.NewPaperSearch(cfg.PaperSearch.BaseURL, cfg.PaperSearch.MaxResults))
	}
	return registry, nil
}

// close releases application resources.
func (a *application) close() {
	if err := a.events.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing safety event log failed")
	}
	_ = a.logger.Sync()
}
