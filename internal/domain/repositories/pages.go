// Package repositories defines the persistence contracts of the editor core.
// Implementations live under internal/infrastructure/persistence.
package repositories

import (
	"context"
	"errors"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

var ErrPageNotFound = errors.New("page not found")

// PageRepository is the page store the editor loads from and saves to. Every
// call must complete or fail within the context deadline.
type PageRepository interface {
	LoadPage(ctx context.Context, pageID string) (*editor.Page, error)
	SavePage(ctx context.Context, req editor.SaveRequest) (*editor.Page, error)
	CreatePage(ctx context.Context, page *editor.Page) error
	ListPages(ctx context.Context, projectID string) ([]*editor.Page, error)
	DeletePage(ctx context.Context, pageID string) error
}
