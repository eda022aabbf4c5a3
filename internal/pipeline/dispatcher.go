// internal/pipeline/dispatcher.go
package pipeline

import (
	"context"

	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/search"
)

// Operation selects the downstream endpoint for a pipeline instance.
type Operation string

const (
	OpSearch    Operation = "search"
	OpRecommend Operation = "recommend"
	OpDetail    Operation = "detail"
)

// Dispatcher issues the downstream request for a pipeline instance.
// It owns the per-channel limit policy and hands the three possible
// outcomes (results, empty, failure) back to the runner untouched.
// Retries, if any, are the HTTP client's concern, not this layer's.
type Dispatcher struct {
	service      search.Service
	defaultLimit int
	maxLimit     int
	logger       logger.Logger
}

func NewDispatcher(service search.Service, defaultLimit, maxLimit int, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		service:      service,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       log.With(map[string]interface{}{"component": "dispatcher"}),
	}
}

// ResolveLimit applies the per-channel limit policy: conversational
// channels always use the configured default, structured callers may
// request their own, and everything is capped at the configured max.
func (d *Dispatcher) ResolveLimit(channel models.Channel, requested int) int {
	limit := requested
	if channel == models.ChannelConversational || limit <= 0 {
		limit = d.defaultLimit
	}
	if limit > d.maxLimit {
		limit = d.maxLimit
	}
	return limit
}

// Dispatch issues the downstream call for the given operation. The
// canonical query doubles as the SKU for recommend/detail operations.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, query string, limit int) (*search.Result, error) {
	d.logger.Debug("dispatching downstream request", map[string]interface{}{
		"operation": string(op),
		"query":     query,
		"limit":     limit,
	})

	switch op {
	case OpRecommend:
		return d.service.Recommend(ctx, query, limit)
	case OpDetail:
		return d.service.ProductDetail(ctx, query)
	default:
		return d.service.Search(ctx, models.SearchRequest{Query: query, Limit: limit})
	}
}
