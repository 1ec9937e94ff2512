// Package http exposes the research service over a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/orchestrator"
	"github.com/seaforthlabs/roundtable/internal/safety"
)

// QueryService answers research queries.
type QueryService interface {
	HandleQuery(ctx context.Context, query string) *orchestrator.Result
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	service QueryService
	events  *safety.EventLog
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the HTTP server.
func NewServer(service QueryService, events *safety.EventLog, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if events == nil {
		return nil, fmt.Errorf("event log cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		events:  events,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.GET("/safety/events", s.handleSafetyEvents)
	v1.GET("/safety/stats", s.handleSafetyStats)
}

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Query string `json:"query"`

	// IncludeTurns requests the full transcript in the response.
	IncludeTurns bool `json:"include_turns,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleQuery runs one research session for the posted query.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	result := s.service.HandleQuery(c.Request().Context(), req.Query)
	if !req.IncludeTurns {
		result.Turns = nil
	}
	return c.JSON(http.StatusOK, result)
}

// handleSafetyEvents returns recent gate decisions, newest last. The limit
// query parameter bounds the count; default 50.
func (s *Server) handleSafetyEvents(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, s.events.Recent(limit))
}

// handleSafetyStats returns aggregate gate statistics.
func (s *Server) handleSafetyStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.events.Stats())
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
