// Package web exposes the app over a JSON HTTP API with a websocket progress
// feed.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"gamedev-ai/internal/app"
	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/fanout"
	"gamedev-ai/internal/history"
	"gamedev-ai/internal/perceptual"
	"gamedev-ai/internal/preset"
)

const defaultHistoryLimit = 20

// Server serves the HTTP API.
type Server struct {
	app  *app.App
	echo *echo.Echo
}

// New builds the router for a.
func New(a *app.App) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{app: a, echo: e}

	api := e.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/ask", s.handleAsk)
	api.POST("/test-connections", s.handleTestConnections)
	api.GET("/presets", s.handlePresets)
	api.POST("/presets/:name", s.handleRunPreset)
	api.GET("/history", s.handleHistory)
	api.GET("/history/:id", s.handleReport)
	api.POST("/validate", s.handleValidate)
	api.PUT("/credentials/:provider", s.handleSetCredential)
	api.DELETE("/credentials/:provider", s.handleDeleteCredential)
	api.GET("/logs", s.handleLogs)
	api.GET("/events", s.handleEvents)

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	log.Printf("[web] listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type askRequest struct {
	Prompt    string   `json:"prompt"`
	Providers []string `json:"providers"`
}

type providersRequest struct {
	Providers []string `json:"providers"`
}

type presetRequest struct {
	Params    map[string]string `json:"params"`
	Providers []string          `json:"providers"`
}

type validateRequest struct {
	ReportID    string `json:"report_id"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

type credentialRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Status())
}

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	report, err := s.app.Ask(c.Request().Context(), req.Prompt, req.Providers)
	if err != nil {
		return httpError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleTestConnections(c echo.Context) error {
	var req providersRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	report, err := s.app.TestConnections(c.Request().Context(), req.Providers)
	if err != nil {
		return httpError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handlePresets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Presets())
}

func (s *Server) handleRunPreset(c echo.Context) error {
	var req presetRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	run, err := s.app.RunPreset(c.Request().Context(), c.Param("name"), req.Params, req.Providers)
	if err != nil {
		// Remaining failures are template input errors.
		return httpError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	entries, err := s.app.History(c.Request().Context(), limit)
	if err != nil {
		return httpError(err, http.StatusInternalServerError)
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleReport(c echo.Context) error {
	report, err := s.app.Report(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := perceptual.DomainsFor(req.ContentType); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if req.ReportID != "" {
		res, err := s.app.ValidateReport(ctx, req.ReportID, req.ContentType)
		if err != nil {
			return httpError(err, http.StatusBadGateway)
		}
		return c.JSON(http.StatusOK, res)
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "report_id or content is required")
	}
	res, err := s.app.ValidateContent(ctx, req.ContentType, req.Content)
	if err != nil {
		return httpError(err, http.StatusBadGateway)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSetCredential(c echo.Context) error {
	var req credentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	persisted, err := s.app.SaveCredential(c.Param("provider"), req.Value)
	if err != nil {
		return httpError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, map[string]bool{"persisted": persisted})
}

func (s *Server) handleDeleteCredential(c echo.Context) error {
	if err := s.app.DeleteCredential(c.Param("provider")); err != nil {
		return httpError(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleLogs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Logs())
}

// httpError maps app errors onto HTTP statuses. Errors it does not
// recognise get fallback.
func httpError(err error, fallback int) error {
	status := fallback
	switch {
	case connector.KindOf(err) == connector.ErrorUnknownProvider,
		errors.Is(err, fanout.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound),
		errors.Is(err, preset.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrHistoryDisabled),
		errors.Is(err, perceptual.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[web] %v", err)
	}
	return echo.NewHTTPError(status, err.Error())
}
