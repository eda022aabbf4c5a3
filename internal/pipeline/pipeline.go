// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"time"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/metrics"
	"ferreteria-gateway/internal/common/observability"
	"ferreteria-gateway/internal/models"
)

// Pipeline processes one inbound message per instance:
//
//	Received -> Normalized -> Validated -> Dispatched -> Formatted -> Sent
//	                                 \-> (fallback) Formatted -> Sent
//	                          Dispatched -> (upstream failure) Errored
//
// Instances share no mutable state; the host may run any number of
// them concurrently. The only suspension point is the downstream call,
// bounded by the configured timeout. Every instance terminates with
// exactly one outbound reply.
type Pipeline struct {
	normalizer *Normalizer
	dispatcher *Dispatcher
	formatters map[models.Channel]Formatter
	timeout    time.Duration
	logger     logger.Logger
	obs        *observability.Observability
}

func New(normalizer *Normalizer, dispatcher *Dispatcher, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		dispatcher: dispatcher,
		formatters: map[models.Channel]Formatter{
			models.ChannelConversational: NewConversationalFormatter(),
			models.ChannelAPI:            NewStructuredFormatter(),
		},
		timeout: timeout,
		logger:  log.With(map[string]interface{}{"component": "pipeline"}),
		obs:     obs,
	}
}

// Outcome reports how an instance terminated.
type Outcome struct {
	Reply models.OutboundMessage
	State models.State
	// Err is set only on the Errored path and always carries an
	// upstream StandardError; the reply still holds the formatted
	// error payload.
	Err *stderrors.StandardError
}

// Process runs one pipeline instance to its terminal state.
func (p *Pipeline) Process(ctx context.Context, op Operation, in models.InboundMessage) Outcome {
	started := time.Now()
	state := models.StateReceived
	log := p.logger.With(map[string]interface{}{
		"messageId": in.ID,
		"channel":   string(in.Channel),
		"operation": string(op),
	})

	formatter := p.formatters[in.Channel]

	// Received -> Normalized. Structured queries skip the normalizer:
	// the caller's query is canonical verbatim.
	query := p.normalize(in)
	state = models.StateNormalized

	// Normalized -> Validated | fallback.
	if !IsActionable(query) {
		log.WithError(stderrors.NewEmptyQueryError(query.OriginalText)).Info(
			"empty canonical query, sending fallback reply", nil)
		reply := formatter.Fallback(in)
		return p.finish(ctx, in, reply, models.StateSent, nil, started)
	}
	state = models.StateValidated

	// Validated -> Dispatched. The single suspension point, bounded by
	// the configured timeout.
	limit := p.dispatcher.ResolveLimit(in.Channel, requestedLimit(in))
	dispatchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.dispatcher.Dispatch(dispatchCtx, op, query.CanonicalText, limit)
	if err != nil {
		stdErr := asStandardError(err)
		log.WithError(err).Error("downstream dispatch failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"state":     string(state),
		})
		reply := formatter.UpstreamError(in, stdErr)
		return p.finish(ctx, in, reply, models.StateErrored, stdErr, started)
	}
	state = models.StateDispatched

	// Dispatched -> Formatted -> Sent.
	reply := formatter.Results(in, query, result, limit)
	state = models.StateFormatted

	log.Info("pipeline instance completed", map[string]interface{}{
		"resultCount": len(result.Products),
		"limit":       limit,
		"state":       string(state),
	})
	return p.finish(ctx, in, reply, models.StateSent, nil, started)
}

func (p *Pipeline) normalize(in models.InboundMessage) models.NormalizedQuery {
	if in.Channel == models.ChannelAPI && in.RawQuery != nil {
		return models.NormalizedQuery{
			CanonicalText: in.RawQuery.Query,
			OriginalText:  in.RawQuery.Query,
			SenderID:      in.SenderID,
		}
	}
	return models.NormalizedQuery{
		CanonicalText: p.normalizer.Normalize(in.RawText),
		OriginalText:  in.RawText,
		SenderID:      in.SenderID,
	}
}

func (p *Pipeline) finish(ctx context.Context, in models.InboundMessage, reply models.OutboundMessage, terminal models.State, stdErr *stderrors.StandardError, started time.Time) Outcome {
	outcome := "sent"
	if terminal == models.StateErrored {
		outcome = "errored"
	}

	metrics.MessagesProcessed.WithLabelValues(string(in.Channel), outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(string(in.Channel)).Observe(time.Since(started).Seconds())
	if p.obs != nil {
		p.obs.RecordMessageProcessed(ctx, string(in.Channel), outcome)
		p.obs.RecordMessageDuration(ctx, time.Since(started), string(in.Channel))
	}

	return Outcome{Reply: reply, State: terminal, Err: stdErr}
}

func requestedLimit(in models.InboundMessage) int {
	if in.RawQuery != nil {
		return in.RawQuery.Limit
	}
	return 0
}

func asStandardError(err error) *stderrors.StandardError {
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return stderrors.NewSearchUnavailableError(err)
}
