package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/tradelog"
)

const defaultTradeLimit = 100

// Server exposes read-only status endpoints over HTTP.
type Server struct {
	echo    *echo.Echo
	addr    string
	engine  interfaces.Engine
	history *tradelog.History
}

func New(addr string, eng interfaces.Engine, history *tradelog.History, m *metrics.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second

	e.Use(requestLogging())
	e.Use(recoverPanics())

	s := &Server{echo: e, addr: addr, engine: eng, history: history}
	e.GET("/healthz", s.health)
	e.GET("/status", s.status)
	e.GET("/trades", s.trades)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	return s
}

// Start listens in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		logger.Info(context.Background(), "Status server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(context.Background(), "Status server failed", err, "addr", s.addr)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Snapshot())
}

// trades returns the most recent trades, oldest first.
func (s *Server) trades(c echo.Context) error {
	limit := defaultTradeLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	recs := s.history.Records()
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(recs),
		"trades": recs,
	})
}
