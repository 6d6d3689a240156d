// Package pages provides the SQL page store.
package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	schema "github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

const pageColumns = `id, project_id, title, html_content, css_content, background_assets, canvas_settings, created, changed`

type PageRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

var _ repositories.PageRepository = (*PageRepository)(nil)

func NewPageRepository(db *sql.DB, logger *logging.ChanneledLogger) *PageRepository {
	return &PageRepository{db: db, logger: logger}
}

func (r *PageRepository) LoadPage(ctx context.Context, pageID string) (*editor.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`
	start := time.Now()
	page, err := scanPage(r.db.QueryRowContext(ctx, query, pageID))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPageNotFound, pageID)
	}
	if err != nil {
		r.logger.Database().Error("Page load failed", "error", err.Error(), "pageId", pageID)
		return nil, fmt.Errorf("failed to load page %s: %w", pageID, err)
	}
	return page, nil
}

// SavePage writes the non-nil fields of req and returns the stored page.
func (r *PageRepository) SavePage(ctx context.Context, req editor.SaveRequest) (*editor.Page, error) {
	sets := []string{"changed = ?"}
	args := []any{time.Now().UTC().Format(schema.TimestampLayout)}
	if req.HTMLContent != nil {
		sets = append(sets, "html_content = ?")
		args = append(args, *req.HTMLContent)
	}
	if req.CSSContent != nil {
		sets = append(sets, "css_content = ?")
		args = append(args, *req.CSSContent)
	}
	if req.BackgroundAssets != nil {
		assets := *req.BackgroundAssets
		if assets == nil {
			assets = []editor.BackgroundAsset{}
		}
		data, err := json.Marshal(assets)
		if err != nil {
			return nil, fmt.Errorf("failed to encode background assets: %w", err)
		}
		sets = append(sets, "background_assets = ?")
		args = append(args, string(data))
	}
	if req.CanvasSettings != nil {
		data, err := json.Marshal(req.CanvasSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to encode canvas settings: %w", err)
		}
		sets = append(sets, "canvas_settings = ?")
		args = append(args, string(data))
	}

	query := `UPDATE pages SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, req.PageID)
	if req.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, req.ProjectID)
	}

	start := time.Now()
	r.logger.Database().Debug("Executing page update", "pageId", req.PageID, "fields", len(sets)-1)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Page update failed", "error", err.Error(), "pageId", req.PageID)
		return nil, fmt.Errorf("failed to update page %s: %w", req.PageID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPageNotFound, req.PageID)
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), req.PageID)
	r.logger.Database().Info("Page update completed", "pageId", req.PageID, "duration", time.Since(start))

	return r.LoadPage(ctx, req.PageID)
}

func (r *PageRepository) CreatePage(ctx context.Context, page *editor.Page) error {
	assets := page.BackgroundAssets
	if assets == nil {
		assets = []editor.BackgroundAsset{}
	}
	assetsJSON, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("failed to encode background assets: %w", err)
	}
	canvasJSON, err := json.Marshal(page.CanvasSettings)
	if err != nil {
		return fmt.Errorf("failed to encode canvas settings: %w", err)
	}
	if page.Created.IsZero() {
		page.Created = time.Now().UTC()
	}

	query := `INSERT INTO pages (id, project_id, title, html_content, css_content, background_assets, canvas_settings, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	start := time.Now()
	_, err = r.db.ExecContext(ctx, query, page.PageID, page.ProjectID, page.Title, page.HTMLContent,
		page.CSSContent, string(assetsJSON), string(canvasJSON), page.Created.UTC().Format(schema.TimestampLayout))
	if err != nil {
		r.logger.Database().Error("Page insert failed", "error", err.Error(), "pageId", page.PageID)
		return fmt.Errorf("failed to insert page: %w", err)
	}
	r.logger.Database().Info("Page insert completed", "pageId", page.PageID, "duration", time.Since(start))
	return nil
}

// ListPages returns the pages of a project, most recently created first.
func (r *PageRepository) ListPages(ctx context.Context, projectID string) ([]*editor.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE project_id = ? ORDER BY created DESC, id DESC`
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []*editor.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "")
	return pages, nil
}

func (r *PageRepository) DeletePage(ctx context.Context, pageID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, pageID)
	if err != nil {
		r.logger.Database().Error("Page delete failed", "error", err.Error(), "pageId", pageID)
		return fmt.Errorf("failed to delete page %s: %w", pageID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrPageNotFound, pageID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*editor.Page, error) {
	var page editor.Page
	var assetsJSON, canvasJSON, createdStr string
	var changed sql.NullString
	err := row.Scan(&page.PageID, &page.ProjectID, &page.Title, &page.HTMLContent, &page.CSSContent,
		&assetsJSON, &canvasJSON, &createdStr, &changed)
	if err != nil {
		return nil, err
	}

	page.BackgroundAssets = []editor.BackgroundAsset{}
	if assetsJSON != "" {
		if err := json.Unmarshal([]byte(assetsJSON), &page.BackgroundAssets); err != nil {
			return nil, fmt.Errorf("invalid background assets for page %s: %w", page.PageID, err)
		}
	}
	page.CanvasSettings = editor.DefaultCanvasSettings()
	if canvasJSON != "" && canvasJSON != "{}" {
		if err := json.Unmarshal([]byte(canvasJSON), &page.CanvasSettings); err != nil {
			return nil, fmt.Errorf("invalid canvas settings for page %s: %w", page.PageID, err)
		}
	}
	if page.CanvasSettings.Artboards == nil {
		page.CanvasSettings.Artboards = []editor.Artboard{}
	}

	if created, ok := parseTimestamp(createdStr); ok {
		page.Created = created
	}
	if changed.Valid {
		if changedTime, ok := parseTimestamp(changed.String); ok {
			page.UpdatedAt = &changedTime
		}
	}
	return &page, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{schema.TimestampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
