// internal/channels/api/handler.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/validation"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/pipeline"
)

// Handler is the structured intake adapter and responder. Queries
// arrive verbatim (no normalization phase) and successful downstream
// payloads are passed through unmodified.
type Handler struct {
	pipeline  *pipeline.Pipeline
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(p *pipeline.Pipeline, v *validation.Validator, log logger.Logger) *Handler {
	return &Handler{
		pipeline:  p,
		validator: v,
		logger:    log.With(map[string]interface{}{"channel": "api"}),
	}
}

type searchPayload struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type recommendPayload struct {
	SKU   string `json:"sku"`
	Limit int    `json:"limit"`
}

// HandleSearch serves POST /api/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	if err := h.validator.ValidateSearchRequest(body); err != nil {
		h.logger.Warn("rejected search payload", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	var payload searchPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	in := h.inbound(r, payload.Query, payload.Limit)
	respond(w, h.pipeline.Process(r.Context(), pipeline.OpSearch, in))
}

// HandleRecommend serves POST /api/recommend.
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	if err := h.validator.ValidateRecommendRequest(body); err != nil {
		h.logger.Warn("rejected recommend payload", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	var payload recommendPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	in := h.inbound(r, payload.SKU, payload.Limit)
	respond(w, h.pipeline.Process(r.Context(), pipeline.OpRecommend, in))
}

// HandleProductDetail serves GET /api/products/{sku}.
func (h *Handler) HandleProductDetail(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	if sku == "" {
		sku = strings.TrimPrefix(r.URL.Path, "/api/products/")
	}
	if sku == "" || strings.Contains(sku, "/") {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError("missing product sku"))
		return
	}

	in := h.inbound(r, sku, 1)
	respond(w, h.pipeline.Process(r.Context(), pipeline.OpDetail, in))
}

func (h *Handler) inbound(r *http.Request, query string, limit int) models.InboundMessage {
	return models.InboundMessage{
		ID:       uuid.NewString(),
		Channel:  models.ChannelAPI,
		SenderID: callerID(r),
		RawQuery: &models.StructuredQuery{
			Query: query,
			Limit: limit,
		},
		ReceivedAt: time.Now().UTC(),
	}
}

// callerID extracts the sender identity for the structured channel.
func callerID(r *http.Request) string {
	if id := r.Header.Get("X-Caller-Id"); id != "" {
		return id
	}
	return r.RemoteAddr
}

func respond(w http.ResponseWriter, outcome pipeline.Outcome) {
	w.Header().Set("Content-Type", "application/json")
	if outcome.State == models.StateErrored {
		w.WriteHeader(statusForUpstream(outcome.Err))
	}
	_, _ = w.Write(outcome.Reply.Body)
}

func statusForUpstream(stdErr *stderrors.StandardError) int {
	if stdErr == nil {
		return http.StatusBadGateway
	}
	switch stdErr.Code {
	case stderrors.ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	case stderrors.ErrCodeProductNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, stdErr *stderrors.StandardError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorReply{
		Error:   string(stdErr.Code),
		Message: stdErr.Message,
	})
}
