// Package api provides the HTTP handlers for the reportrun report API.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tessera-labs/reportrun/internal/core/auth"
	"github.com/tessera-labs/reportrun/internal/core/config"
	"github.com/tessera-labs/reportrun/internal/core/store"
	"github.com/tessera-labs/reportrun/internal/engine"
	"github.com/tessera-labs/reportrun/internal/types"
)

// ReportService implements the report API handlers.
// Thin orchestration layer delegating to the store and the engine.
type ReportService struct {
	store  *store.Store
	engine *engine.Engine
	cfg    *config.ServerConfig
}

// NewReportService creates a service instance with dependencies.
func NewReportService(st *store.Store, eng *engine.Engine, cfg *config.ServerConfig) (*ReportService, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	return &ReportService{store: st, engine: eng, cfg: cfg}, nil
}

// Register wires the service routes onto an echo instance. Healthz stays
// outside the auth group so load balancers can probe without a key.
func (s *ReportService) Register(e *echo.Echo, authenticator *auth.Authenticator) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api", authenticator.Middleware())
	g.GET("/reports", s.ListReports)
	g.POST("/reports/:id/run", s.RunReport)
}

// Healthz reports liveness.
func (s *ReportService) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// reportSummary is the list-endpoint projection of a definition.
type reportSummary struct {
	ID    types.ReportID `json:"id"`
	Name  string         `json:"name"`
	Views int            `json:"views"`
}

// ListReports returns the authenticated principal's report definitions.
func (s *ReportService) ListReports(c echo.Context) error {
	principal := auth.PrincipalFromContext(c)

	defs, err := s.store.ListReports(principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}

	summaries := make([]reportSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, reportSummary{ID: def.ID, Name: def.Name, Views: len(def.Views)})
	}
	return c.JSON(http.StatusOK, summaries)
}

// RunReport executes one view of a report definition.
// Configuration errors (unknown report, no datasets, no views) map to 4xx;
// load failures map to 5xx.
func (s *ReportService) RunReport(c echo.Context) error {
	principal := auth.PrincipalFromContext(c)

	var in types.RunInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed run input")
	}

	def, err := s.store.GetReport(types.ReportID(c.Param("id")), principal)
	if err != nil {
		if errors.Is(err, types.ErrReportNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load report")
	}

	result, err := s.engine.Run(c.Request().Context(), principal, def, in)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNoDatasets), errors.Is(err, types.ErrViewNotFound):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, types.ErrDatasetNotFound):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "run failed")
		}
	}
	return c.JSON(http.StatusOK, result)
}
