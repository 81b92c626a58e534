package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"p9e.in/gaugewatch/pkg/dashboard"
	"p9e.in/gaugewatch/pkg/readings"
	"p9e.in/gaugewatch/pkg/sites"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	resolver       *sites.Resolver
	submissions    *readings.SubmissionService
	queries        *readings.QueryService
	poller         *dashboard.Poller
	store          Pinger
	maxUploadBytes int64
	now            func() time.Time
}

// Deps are the services a Handler needs.
type Deps struct {
	Resolver       *sites.Resolver
	Submissions    *readings.SubmissionService
	Queries        *readings.QueryService
	Poller         *dashboard.Poller
	Store          Pinger
	MaxUploadBytes int64
}

// New creates a Handler.
func New(d Deps) *Handler {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handler{
		resolver:       d.Resolver,
		submissions:    d.Submissions,
		queries:        d.Queries,
		poller:         d.Poller,
		store:          d.Store,
		maxUploadBytes: maxUpload,
		now:            time.Now,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, readings.ErrInvalidInput), errors.Is(err, sites.ErrUnknownSite):
		return http.StatusBadRequest
	case errors.Is(err, sites.ErrNoSites):
		return http.StatusUnprocessableEntity
	case errors.Is(err, readings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, readings.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// intParam parses an optional positive integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, invalidParam(name, raw)
	}
	return v, nil
}

// MaxHistoryDays bounds the days parameter of the history endpoints.
const MaxHistoryDays = 3650

// daysParam parses the days look-back window, capped at MaxHistoryDays.
func daysParam(r *http.Request, def int) (int, error) {
	days, err := intParam(r, "days", def)
	if err != nil {
		return 0, err
	}
	if days > MaxHistoryDays {
		return 0, invalidParam("days", r.URL.Query().Get("days"))
	}
	return days, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalidParam(name, raw)
	}
	return v, nil
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for " + e.name
}

func (e *paramError) Is(target error) bool {
	return target == readings.ErrInvalidInput
}

func invalidParam(name, value string) error {
	return &paramError{name: name, value: value}
}
