package caching

import (
	"context"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
)

// PageRepository invalidates cached renders of a page whenever the wrapped
// store writes it.
type PageRepository struct {
	repositories.PageRepository
	cache *RenderCache
}

var _ repositories.PageRepository = (*PageRepository)(nil)

func NewPageRepository(inner repositories.PageRepository, cache *RenderCache) *PageRepository {
	return &PageRepository{PageRepository: inner, cache: cache}
}

func (r *PageRepository) SavePage(ctx context.Context, req editor.SaveRequest) (*editor.Page, error) {
	page, err := r.PageRepository.SavePage(ctx, req)
	r.cache.Invalidate(req.PageID)
	return page, err
}

func (r *PageRepository) DeletePage(ctx context.Context, pageID string) error {
	err := r.PageRepository.DeletePage(ctx, pageID)
	r.cache.Invalidate(pageID)
	return err
}
