// internal/channels/webhook/handler.go
package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/validation"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/pipeline"
)

// inboundPayload is the conversational channel wire format.
type inboundPayload struct {
	From    string `json:"from"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

// Handler is the conversational intake adapter and responder: it
// extracts sender and raw text from the webhook payload, runs one
// pipeline instance and writes the reply back on the same transport.
type Handler struct {
	pipeline  *pipeline.Pipeline
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(p *pipeline.Pipeline, v *validation.Validator, log logger.Logger) *Handler {
	return &Handler{
		pipeline:  p,
		validator: v,
		logger:    log.With(map[string]interface{}{"channel": "conversational"}),
	}
}

// HandleMessage serves POST /webhook/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	if err := h.validator.ValidateWebhookMessage(body); err != nil {
		h.logger.Warn("rejected webhook payload", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	var payload inboundPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	in := models.InboundMessage{
		ID:         uuid.NewString(),
		Channel:    models.ChannelConversational,
		SenderID:   payload.From,
		RawText:    payload.Message.Text,
		ReceivedAt: time.Now().UTC(),
	}

	outcome := h.pipeline.Process(r.Context(), pipeline.OpSearch, in)
	respond(w, outcome)
}

// respond delivers the formatted reply over the originating transport.
// Upstream failures carry a failure status; everything else is a
// normal reply.
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
