// internal/search/service.go
package search

import (
	"context"

	"ferreteria-gateway/internal/models"
)

// Service is the search capability as the pipeline sees it. Client
// implements it directly; CachedService decorates any implementation
// with a redis response cache.
type Service interface {
	Search(ctx context.Context, req models.SearchRequest) (*Result, error)
	Recommend(ctx context.Context, sku string, limit int) (*Result, error)
	ProductDetail(ctx context.Context, sku string) (*Result, error)
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*CachedService)(nil)
)
