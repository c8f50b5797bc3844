// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/database"
	"github.com/callwatchio/callwatch/internal/logging"
	"github.com/callwatchio/callwatch/internal/report"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// defaultDays is the relative window used when neither explicit dates
// nor days are supplied.
const defaultDays = 7

// Pinger is the record store health probe. Satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the endpoint implementations and their dependencies.
type Handlers struct {
	reports   *report.Service
	db        Pinger
	cfg       *config.Config
	version   string
	startTime time.Time
}

// NewHandlers wires the endpoint handlers.
func NewHandlers(reports *report.Service, db Pinger, cfg *config.Config, version string) *Handlers {
	return &Handlers{
		reports:   reports,
		db:        db,
		cfg:       cfg,
		version:   version,
		startTime: time.Now(),
	}
}

// failureAnalysisParams are the validated query parameters of the
// failure-analysis endpoint. From/To and Days are mutually exclusive
// request modes.
type failureAnalysisParams struct {
	From           string `validate:"omitempty,datetime=2006-01-02"`
	To             string `validate:"omitempty,datetime=2006-01-02"`
	Days           int    `validate:"min=0,max=30"`
	MaxUsers       int    `validate:"min=1,max=100"`
	Force          bool
	IncludeDetails bool
}

// parseFailureAnalysisParams reads and validates the query string.
// Validation failures are reported before any I/O happens.
func (h *Handlers) parseFailureAnalysisParams(r *http.Request) (failureAnalysisParams, error) {
	q := r.URL.Query()
	params := failureAnalysisParams{
		From:     q.Get("from"),
		To:       q.Get("to"),
		MaxUsers: h.cfg.Report.MaxUsers,
	}

	var err error
	if v := q.Get("days"); v != "" {
		if params.Days, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("days must be an integer")
		}
		if params.Days < 1 {
			return params, fmt.Errorf("days must be at least 1")
		}
	}
	if v := q.Get("max_users"); v != "" {
		if params.MaxUsers, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("max_users must be an integer")
		}
	}
	if v := q.Get("force"); v != "" {
		if params.Force, err = strconv.ParseBool(v); err != nil {
			return params, fmt.Errorf("force must be a boolean")
		}
	}
	if v := q.Get("include_details"); v != "" {
		if params.IncludeDetails, err = strconv.ParseBool(v); err != nil {
			return params, fmt.Errorf("include_details must be a boolean")
		}
	}

	if (params.From == "") != (params.To == "") {
		return params, fmt.Errorf("from and to must be supplied together")
	}
	if params.From != "" && params.Days > 0 {
		return params, fmt.Errorf("days cannot be combined with from/to")
	}

	if err := validate.Struct(params); err != nil {
		return params, err
	}
	return params, nil
}

// window resolves the requested date window from explicit dates or the
// relative days mode.
func (p failureAnalysisParams) window() (report.Window, error) {
	if p.From != "" {
		return report.NewWindow(p.From, p.To)
	}
	days := p.Days
	if days == 0 {
		days = defaultDays
	}
	return report.WindowFromDays(days, time.Now()), nil
}

// FailureAnalysis handles GET /api/v1/reports/failure-analysis.
func (h *Handlers) FailureAnalysis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := h.parseFailureAnalysisParams(r)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			details := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				details[fe.Field()] = fe.Tag()
			}
			rw.ValidationFailed("invalid query parameters", details)
			return
		}
		rw.ValidationFailed(err.Error(), nil)
		return
	}

	window, err := params.window()
	if err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeInvalidWindow, err.Error())
		return
	}

	result, err := h.reports.Generate(r.Context(), report.Request{
		Window:         window,
		MaxUsers:       params.MaxUsers,
		Force:          params.Force,
		IncludeDetails: params.IncludeDetails,
	})
	if err != nil {
		h.writeGenerateError(rw, r, err)
		return
	}

	rw.SuccessWithMeta(result, &APIMeta{ExecutionTimeSeconds: result.ExecutionTime})
}

// writeGenerateError maps pipeline errors to response codes without
// leaking internal error types.
func (h *Handlers) writeGenerateError(rw *ResponseWriter, r *http.Request, err error) {
	log := logging.Ctx(r.Context())

	var dsErr *database.DataSourceError
	var renderErr *report.RenderError

	switch {
	case errors.Is(err, report.ErrInvalidWindow):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidWindow, err.Error())
	case errors.As(err, &dsErr):
		log.Error().Err(err).Msg("Record store unavailable")
		rw.Error(http.StatusServiceUnavailable, ErrCodeDataSourceError, "record store unavailable")
	case errors.As(err, &renderErr):
		log.Error().Err(err).Msg("Report rendering failed")
		rw.Error(http.StatusInternalServerError, ErrCodeRenderError, "report rendering failed")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "request deadline exceeded")
	default:
		log.Error().Err(err).Msg("Report generation failed")
		rw.InternalError("report generation failed")
	}
}

// healthData is the health endpoint payload.
type healthData struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database,omitempty"`
}

// Health handles GET /health. With ?test_db=true it also probes record
// store connectivity.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	data := healthData{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if testDB, _ := strconv.ParseBool(r.URL.Query().Get("test_db")); testDB {
		if err := h.db.Ping(r.Context()); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health probe: record store unreachable")
			data.Status = "degraded"
			data.Database = "unreachable"
			rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: data})
			return
		}
		data.Database = "ok"
	}

	rw.Success(data)
}
