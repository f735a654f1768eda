// Package admin serves the operator API: manual ingestion and validation
// triggers plus read-only views of clusters, fatigue buckets and sources.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/process/fatigue"
	"github.com/lueurxax/trendpulse/internal/process/pipeline"
	"github.com/lueurxax/trendpulse/internal/process/validation"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"

	routeIngest   = "ingest"
	routeValidate = "validate"
	routeClusters = "clusters"
	routeFatigue  = "fatigue"
	routeSources  = "sources"

	maxBodyBytes        = 1 << 16
	defaultClusterLimit = 50
	maxClusterLimit     = 500
)

var (
	errInvalidParam      = errors.New("invalid parameter")
	errInvalidDirection  = errors.New("direction must be one of rising, falling, stable, spiking")
	errInvalidMinScore   = errors.New("min_score must be a non-negative number")
	errInvalidLimit      = errors.New("limit must be a positive integer")
	errInvalidSinceHours = errors.New("since_hours must be a positive integer")
)

// Operations is the pipeline surface exposed over HTTP.
type Operations interface {
	RunIngestion(ctx context.Context) (pipeline.IngestionReport, error)
	RunValidationBatch(ctx context.Context, req pipeline.BatchRequest) (pipeline.BatchReport, error)
	Clusters(ctx context.Context, q domain.ClusterQuery) ([]domain.TopicCluster, error)
	FatigueBuckets(ctx context.Context) (fatigue.Report, error)
	SourceStats(ctx context.Context) ([]domain.SourceStat, error)
	Sources() []domain.SignalSource
}

// Handler routes admin requests. Paths are relative to the admin mount point.
type Handler struct {
	ops    Operations
	logger *zerolog.Logger
	now    func() time.Time
}

// NewHandler creates an admin handler over ops.
func NewHandler(ops Operations, logger *zerolog.Logger) *Handler {
	return &Handler{ops: ops, logger: logger, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route, status := h.dispatch(w, r)

	latencyHistogram.WithLabelValues(route).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) (route string, status int) {
	route = strings.Trim(r.URL.Path, "/")

	switch route {
	case routeIngest:
		return route, h.requireMethod(w, r, http.MethodPost, h.handleIngest)
	case routeValidate:
		return route, h.requireMethod(w, r, http.MethodPost, h.handleValidate)
	case routeClusters:
		return route, h.requireMethod(w, r, http.MethodGet, h.handleClusters)
	case routeFatigue:
		return route, h.requireMethod(w, r, http.MethodGet, h.handleFatigue)
	case routeSources:
		return route, h.requireMethod(w, r, http.MethodGet, h.handleSources)
	default:
		return "unknown", h.writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string, next func(http.ResponseWriter, *http.Request) int) int {
	if r.Method != method {
		w.Header().Set("Allow", method)

		return h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}

	return next(w, r)
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) int {
	report, err := h.ops.RunIngestion(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin ingestion failed")

		return h.writeError(w, http.StatusInternalServerError, err.Error())
	}

	return h.writeJSON(w, http.StatusOK, report)
}

type validateRequest struct {
	Topics          []string `json:"topics"`
	Limit           int      `json:"limit"`
	Verbose         bool     `json:"verbose"`
	ContinueOnError *bool    `json:"continue_on_error"`
}

type validateResponse struct {
	pipeline.BatchReport
	Error string `json:"error,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) int {
	req, err := decodeValidateRequest(r)
	if err != nil {
		return h.writeError(w, http.StatusBadRequest, err.Error())
	}

	opts := validation.DefaultOptions()
	opts.Verbose = req.Verbose

	if req.ContinueOnError != nil {
		opts.ContinueOnError = *req.ContinueOnError
	}

	report, err := h.ops.RunValidationBatch(r.Context(), pipeline.BatchRequest{
		Topics:  req.Topics,
		Limit:   req.Limit,
		Options: opts,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("admin validation batch failed")

		status := http.StatusInternalServerError
		if pipeline.IsConflict(err) {
			status = http.StatusConflict
		}

		return h.writeJSON(w, status, validateResponse{BatchReport: report, Error: err.Error()})
	}

	return h.writeJSON(w, http.StatusOK, validateResponse{BatchReport: report})
}

func decodeValidateRequest(r *http.Request) (validateRequest, error) {
	var req validateRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, err //nolint:wrapcheck // surfaced to client
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, err //nolint:wrapcheck // surfaced to client
	}

	if req.Limit < 0 {
		return req, errInvalidParam
	}

	return req, nil
}

func (h *Handler) handleClusters(w http.ResponseWriter, r *http.Request) int {
	q, err := h.parseClusterQuery(r)
	if err != nil {
		return h.writeError(w, http.StatusBadRequest, err.Error())
	}

	clusters, err := h.ops.Clusters(r.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Msg("admin cluster listing failed")

		return h.writeError(w, http.StatusInternalServerError, err.Error())
	}

	return h.writeJSON(w, http.StatusOK, map[string]any{"clusters": toClusterViews(clusters)})
}

func (h *Handler) parseClusterQuery(r *http.Request) (domain.ClusterQuery, error) {
	values := r.URL.Query()
	q := domain.ClusterQuery{
		Category: values.Get("category"),
		Limit:    defaultClusterLimit,
	}

	if d := values.Get("direction"); d != "" {
		switch dir := domain.TrendDirection(d); dir {
		case domain.TrendRising, domain.TrendFalling, domain.TrendStable, domain.TrendSpiking:
			q.Direction = dir
		default:
			return q, errInvalidDirection
		}
	}

	if v := values.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < 0 {
			return q, errInvalidMinScore
		}

		q.MinScore = score
	}

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return q, errInvalidLimit
		}

		q.Limit = min(limit, maxClusterLimit)
	}

	if v := values.Get("since_hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return q, errInvalidSinceHours
		}

		q.Since = h.now().Add(-time.Duration(hours) * time.Hour)
	}

	return q, nil
}

func (h *Handler) handleFatigue(w http.ResponseWriter, r *http.Request) int {
	report, err := h.ops.FatigueBuckets(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin fatigue report failed")

		return h.writeError(w, http.StatusInternalServerError, err.Error())
	}

	return h.writeJSON(w, http.StatusOK, map[string]any{
		"saturated":   toClusterViews(report.Saturated),
		"rising":      toClusterViews(report.Rising),
		"underserved": toClusterViews(report.Underserved),
	})
}

func (h *Handler) handleSources(w http.ResponseWriter, r *http.Request) int {
	stats, err := h.ops.SourceStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin source stats failed")

		return h.writeError(w, http.StatusInternalServerError, err.Error())
	}

	if stats == nil {
		stats = []domain.SourceStat{}
	}

	return h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": h.ops.Sources(),
		"stats":   stats,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) int {
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("write json failed")
	}

	return status
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) int {
	return h.writeJSON(w, status, map[string]string{"error": message})
}
