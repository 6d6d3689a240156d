package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/security"
)

const starterHTML = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Untitled</title></head><body></body></html>`

// RenderCache keeps publishable renders between page writes.
type RenderCache interface {
	Get(pageID string, pretty bool) (string, bool)
	Set(pageID string, pretty bool, html string)
}

// PageService manages stored pages outside of an editor session.
type PageService struct {
	pages  repositories.PageRepository
	cache  RenderCache
	logger *logging.ChanneledLogger
}

// NewPageService creates a page service. cache may be nil.
func NewPageService(pages repositories.PageRepository, cache RenderCache, logger *logging.ChanneledLogger) *PageService {
	return &PageService{pages: pages, cache: cache, logger: logger}
}

// CreatePageRequest describes a new page. Empty HTML starts from a blank
// document.
type CreatePageRequest struct {
	ProjectID   string `json:"projectId" binding:"required"`
	Title       string `json:"title"`
	HTMLContent string `json:"htmlContent"`
}

func (s *PageService) Create(ctx context.Context, req CreatePageRequest) (*editor.Page, error) {
	markup := req.HTMLContent
	if strings.TrimSpace(markup) == "" {
		markup = starterHTML
	}
	page := &editor.Page{
		ProjectID:        req.ProjectID,
		PageID:           security.GenerateULID(),
		Title:            req.Title,
		HTMLContent:      markup,
		BackgroundAssets: []editor.BackgroundAsset{},
		CanvasSettings:   editor.DefaultCanvasSettings(),
		Created:          time.Now().UTC(),
	}
	if err := s.pages.CreatePage(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	s.logger.Persistence().Info("Page created", "projectId", page.ProjectID, "pageId", page.PageID)
	return page, nil
}

func (s *PageService) Get(ctx context.Context, pageID string) (*editor.Page, error) {
	return s.pages.LoadPage(ctx, pageID)
}

func (s *PageService) List(ctx context.Context, projectID string) ([]*editor.Page, error) {
	return s.pages.ListPages(ctx, projectID)
}

func (s *PageService) Delete(ctx context.Context, pageID string) error {
	if err := s.pages.DeletePage(ctx, pageID); err != nil {
		return err
	}
	s.logger.Persistence().Info("Page deleted", "pageId", pageID)
	return nil
}

// Render loads a stored page and returns its publishable markup with the
// background layer injected, indented when pretty is set.
func (s *PageService) Render(ctx context.Context, pageID string, pretty bool) (string, error) {
	if s.cache != nil {
		if html, ok := s.cache.Get(pageID, pretty); ok {
			return html, nil
		}
	}
	page, err := s.pages.LoadPage(ctx, pageID)
	if err != nil {
		return "", err
	}
	doc, err := dom.Parse(backgrounds.Strip(page.HTMLContent))
	if err != nil {
		return "", err
	}
	markup, err := doc.Export(pretty)
	if err != nil {
		return "", err
	}
	out, err := backgrounds.Inject(markup, page.BackgroundAssets)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Set(pageID, pretty, out)
	}
	return out, nil
}
