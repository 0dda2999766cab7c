// Package chi is the HTTP surface of the highlighting sidecar.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/domain/search"
	"github.com/kailas-cloud/spotlight/internal/highlight"
	"github.com/kailas-cloud/spotlight/internal/metrics"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeModelNotFound     = "model_not_found"
	codeBatchNotPermitted = "batch_not_permitted"
	codeRateLimited       = "rate_limited"
	codeProviderError     = "provider_error"
	codeModelContract     = "model_contract_violation"
	codeInternalError     = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// settingsWriter updates the enabled-factories cluster setting.
type settingsWriter interface {
	SetEnabledFactories(ctx context.Context, factories []string) error
	ResetEnabledFactories(ctx context.Context) error
	EnabledFactories(ctx context.Context) ([]string, error)
}

// healthChecker reports readiness of one dependency.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// pinger checks database connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// DocumentEnricher fills embedding fields on ingested documents.
type DocumentEnricher interface {
	ProcessDocuments(ctx context.Context, docs []map[string]any) error
}

// Server handles the sidecar's HTTP API.
type Server struct {
	processor     *highlight.Processor
	embedder      *domain.AsymmetricEmbedder
	enricher      DocumentEnricher
	settings      settingsWriter
	store         pinger
	inference     healthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. enricher may be nil when no ingest
// field mappings are configured.
func NewServer(
	processor *highlight.Processor,
	embedder *domain.AsymmetricEmbedder,
	enricher DocumentEnricher,
	settings settingsWriter,
	store pinger,
	inference healthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		processor: processor,
		embedder:  embedder,
		enricher:  enricher,
		settings:  settings,
		store:     store,
		inference: inference,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrModelNotFound, http.StatusNotFound, codeModelNotFound),
		sentinelHandler(domain.ErrBatchNotPermitted, http.StatusBadRequest, codeBatchNotPermitted),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrModelContract, http.StatusBadGateway, codeModelContract),
		sentinelHandler(domain.ErrInferenceProvider, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chimiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/v1/highlight", s.Highlight)
	r.Post("/v1/embed", s.Embed)
	r.Delete("/v1/embed/cache", s.InvalidateEmbedCache)
	r.Post("/v1/ingest", s.Ingest)
	r.Get("/v1/settings/factories", s.GetFactories)
	r.Put("/v1/settings/factories", s.PutFactories)
	r.Delete("/v1/settings/factories", s.DeleteFactories)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	return r
}

// highlightRequest pairs the host's search request with the hits to decorate.
type highlightRequest struct {
	Request  *search.Request  `json:"request"`
	Response *search.Response `json:"response"`
}

// Highlight handles POST /v1/highlight.
func (s *Server) Highlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Request == nil || req.Response == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "request and response are required")
		return
	}

	resp, err := s.processor.ProcessResponse(r.Context(), req.Request, req.Response)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// embedRequest is the POST /v1/embed body.
type embedRequest struct {
	Texts []string `json:"texts"`
	Type  string   `json:"type"`
}

// embedResponse carries the vectors and token usage.
type embedResponse struct {
	Embeddings   [][]float32 `json:"embeddings"`
	PromptTokens int         `json:"prompt_tokens,omitempty"`
	TotalTokens  int         `json:"total_tokens,omitempty"`
}

// Embed handles POST /v1/embed.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "texts is required")
		return
	}

	ct := domain.ContentType(req.Type)
	if req.Type == "" {
		ct = domain.ContentPassage
	}
	if !ct.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			`type must be "query" or "passage"`)
		return
	}

	result, err := s.embedder.BatchEmbedAs(r.Context(), req.Texts, ct)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, embedResponse{
		Embeddings:   result.Embeddings,
		PromptTokens: result.PromptTokens,
		TotalTokens:  result.TotalTokens,
	})
}

// invalidateResponse reports how many cached embeddings were dropped.
type invalidateResponse struct {
	Removed int `json:"removed"`
}

// InvalidateEmbedCache handles DELETE /v1/embed/cache. Texts are matched
// against the cache after the content-type prefix is applied, so the same
// texts and type that produced the entries must be given to drop them.
func (s *Server) InvalidateEmbedCache(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "texts is required")
		return
	}

	ct := domain.ContentType(req.Type)
	if req.Type == "" {
		ct = domain.ContentPassage
	}
	if !ct.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			`type must be "query" or "passage"`)
		return
	}

	removed, ok, err := s.embedder.InvalidateCachedAs(r.Context(), req.Texts, ct)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, codeBadRequest, "embedding cache is not enabled")
		return
	}

	writeJSON(w, http.StatusOK, invalidateResponse{Removed: removed})
}

// ingestPayload is the POST /v1/ingest body and response.
type ingestPayload struct {
	Documents []map[string]any `json:"documents"`
}

// Ingest handles POST /v1/ingest. Embedding fields are filled in according
// to the configured field mappings and the enriched documents are returned.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	if s.enricher == nil {
		writeError(w, http.StatusNotFound, codeBadRequest, "ingest field mappings are not configured")
		return
	}

	var req ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "documents is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	if err := s.enricher.ProcessDocuments(ctx, req.Documents); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
	writeJSON(w, http.StatusOK, req)
}

// factoriesPayload is the settings endpoint body and response.
type factoriesPayload struct {
	EnabledFactories []string `json:"enabled_factories"`
}

// GetFactories handles GET /v1/settings/factories.
func (s *Server) GetFactories(w http.ResponseWriter, r *http.Request) {
	factories, err := s.settings.EnabledFactories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factoriesPayload{EnabledFactories: factories})
}

// PutFactories handles PUT /v1/settings/factories.
func (s *Server) PutFactories(w http.ResponseWriter, r *http.Request) {
	var req factoriesPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.EnabledFactories == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "enabled_factories is required")
		return
	}

	if err := s.settings.SetEnabledFactories(r.Context(), req.EnabledFactories); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DeleteFactories handles DELETE /v1/settings/factories. The stored list is
// cleared and the defaults now in effect are returned.
func (s *Server) DeleteFactories(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ResetEnabledFactories(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	factories, err := s.settings.EnabledFactories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factoriesPayload{EnabledFactories: factories})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if err := s.inference.HealthCheck(r.Context()); err != nil {
		checks["inference"] = "down"
		healthy = false
	} else {
		checks["inference"] = "up"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	// Batch admission errors are composed locally and carry the remedy
	// (which setting or model option to change), so the full message is safe.
	if errors.Is(err, domain.ErrBatchNotPermitted) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrInvalidConfig,
		domain.ErrModelNotFound,
		domain.ErrRateLimited,
		domain.ErrModelContract,
		domain.ErrInferenceProvider,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
