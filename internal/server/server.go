// Package server exposes the refinance analysis over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/refinance-forecast/internal/analysis"
	"github.com/iwvelando/refinance-forecast/internal/cache"
	"github.com/iwvelando/refinance-forecast/internal/config"
	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/iwvelando/refinance-forecast/pkg/loans"
	"github.com/iwvelando/refinance-forecast/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// DurationHeader reports how long the server spent on a request, whether the
// body was computed or served from the cache.
const DurationHeader = "X-Duration"

// Options configures the handler. A nil Cache or Limiter disables that
// feature.
type Options struct {
	MaxUploadSize int64
	Version       string
	Cache         cache.Cache
	CacheTTL      time.Duration
	Limiter       *RateLimiter
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         cache.Cache
	cacheTTL      time.Duration
	limiter       *RateLimiter
}

// NewHandler constructs the HTTP handler that serves the refinance API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		version:       version,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		limiter:       opts.Limiter,
	}

	api := http.NewServeMux()
	api.HandleFunc("/api/analyze", h.handleAnalyze)
	api.HandleFunc("/api/schedule", h.handleSchedule)
	api.HandleFunc("/api/sweep", h.handleSweep)

	mux := http.NewServeMux()
	mux.Handle("/api/", h.rateLimit(api))
	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)

	return h.requestID(mux)
}

type requestIDKey struct{}

func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type analyzeResponse struct {
	Report     *analysis.Report `json:"report"`
	CSV        string           `json:"csv"`
	Warnings   []string         `json:"warnings,omitempty"`
	ConfigYAML string           `json:"configYaml"`
}

type scheduleRequest struct {
	Principal    float64 `json:"principal"`
	InterestRate float64 `json:"interestRate"`
	TermYears    int     `json:"termYears"`
}

type scheduleResponse struct {
	MonthlyPayment float64                   `json:"monthlyPayment"`
	TotalPayments  float64                   `json:"totalPayments"`
	TotalInterest  float64                   `json:"totalInterest"`
	Entries        []loans.AmortizationEntry `json:"entries"`
}

type sweepRequest struct {
	scheduleRequest
	RefinanceRate           float64 `json:"refinanceRate"`
	ClosingCostPercent      float64 `json:"closingCostPercent"`
	OriginationClosingCosts float64 `json:"originationClosingCosts"`
	Step                    int     `json:"step"`
	Limit                   int     `json:"limit"`
}

type sweepResponse struct {
	Baseline float64             `json:"baseline"`
	Points   []analysis.SweepRow `json:"points"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var configBytes []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		configBytes, err = h.readUpload(r)
	} else {
		configBytes, err = readConfigPayload(r.Body)
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.cached(w, r, cache.Key("analyze", configBytes), op, func() (interface{}, error) {
		conf, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", loans.ErrInvalidInput, err)
		}

		report, err := analysis.Run(h.logger, conf)
		if err != nil {
			return nil, err
		}

		csv, err := output.CsvString(report)
		if err != nil {
			return nil, err
		}

		return analyzeResponse{
			Report:     report,
			CSV:        csv,
			Warnings:   report.Warnings,
			ConfigYAML: string(configBytes),
		}, nil
	})
}

func (h *handler) readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse upload: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing configuration file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleAnalyze"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// readConfigPayload accepts {"config": {...}} or the bare configuration object
// and returns it as YAML for the configuration loader.
func readConfigPayload(body io.Reader) ([]byte, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			return nil, errors.New("invalid config payload: expected object")
		}
		configPayload = cfgMap
	}
	if configPayload == nil {
		configPayload = make(map[string]interface{})
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return configBytes, nil
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req scheduleRequest
	key, ok := h.decodeRequest(w, r, "schedule", &req, op)
	if !ok {
		return
	}

	h.cached(w, r, key, op, func() (interface{}, error) {
		terms := loans.LoanTerms{
			Principal:         req.Principal,
			AnnualRatePercent: req.InterestRate,
			TermYears:         req.TermYears,
		}
		payment, err := loans.MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
		if err != nil {
			return nil, err
		}
		entries, err := loans.NewEngine(h.logger).GenerateSchedule(terms)
		if err != nil {
			return nil, err
		}
		return scheduleResponse{
			MonthlyPayment: payment,
			TotalPayments:  loans.TotalPayments(entries),
			TotalInterest:  loans.TotalInterest(entries),
			Entries:        entries,
		}, nil
	})
}

func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSweep"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req sweepRequest
	key, ok := h.decodeRequest(w, r, "sweep", &req, op)
	if !ok {
		return
	}

	h.cached(w, r, key, op, func() (interface{}, error) {
		if req.Step == 0 {
			req.Step = constants.DefaultSweepStep
		}
		if req.Limit == 0 {
			req.Limit = constants.DefaultSweepLimit
		}

		engine := loans.NewEngine(h.logger)
		scenario := loans.RefinanceScenario{
			Original: loans.LoanTerms{
				Principal:         req.Principal,
				AnnualRatePercent: req.InterestRate,
				TermYears:         req.TermYears,
			},
			RefinanceRatePercent:    req.RefinanceRate,
			ClosingCostPercent:      req.ClosingCostPercent,
			OriginationClosingCosts: req.OriginationClosingCosts,
		}
		points, err := engine.Sweep(scenario, req.Step, req.Limit)
		if err != nil {
			return nil, err
		}
		original, err := engine.GenerateSchedule(scenario.Original)
		if err != nil {
			return nil, err
		}

		resp := sweepResponse{
			Baseline: loans.TotalPayments(original),
			Points:   make([]analysis.SweepRow, 0, len(points)),
		}
		for _, point := range points {
			row := analysis.SweepRow{Month: point.Month, Feasible: point.Cost.Feasible}
			if point.Cost.Feasible {
				cost := point.Cost.Cost
				savings := resp.Baseline - cost
				row.Cost = &cost
				row.Savings = &savings
			}
			resp.Points = append(resp.Points, row)
		}
		return resp, nil
	})
}

// decodeRequest decodes a JSON body into dst and returns the cache key of its
// normalized encoding.
func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, kind string, dst interface{}, op string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return "", false
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return "", false
	}

	normalized, err := json.Marshal(dst)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err.Error(), op)
		return "", false
	}
	return cache.Key(kind, normalized), true
}

// cached serves the response stored under key, or computes, stores and
// serves it.
func (h *handler) cached(w http.ResponseWriter, r *http.Request, key, op string, compute func() (interface{}, error)) {
	ctx := r.Context()
	start := time.Now()
	if h.cache != nil {
		data, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("cache lookup failed",
				zap.String("op", op),
				zap.String("requestId", requestIDFrom(ctx)),
				zap.Error(err),
			)
		} else if ok {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set(DurationHeader, time.Since(start).String())
			h.writeRaw(w, http.StatusOK, data)
			return
		}
	}

	payload, err := compute()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, loans.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.respondError(w, r, status, err.Error(), op)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err), op)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, data, h.cacheTTL); err != nil {
			h.logger.Warn("cache store failed",
				zap.String("op", op),
				zap.String("requestId", requestIDFrom(ctx)),
				zap.Error(err),
			)
		}
		w.Header().Set("X-Cache", "MISS")
	}

	h.logger.Info("request computed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(ctx)),
		zap.Duration("duration", time.Since(start)),
	)

	w.Header().Set(DurationHeader, time.Since(start).String())
	h.writeRaw(w, http.StatusOK, data)
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
