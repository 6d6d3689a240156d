// Package database creates the page store schema.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/security"
)

// TimestampLayout matches SQLite's CURRENT_TIMESTAMP text format.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	DefaultProjectID = "default"
	welcomeTitle     = "Welcome"
	welcomeHTML      = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Welcome</title>` +
		`<style>.hero { padding: 64px 24px; text-align: center; }</style></head>` +
		`<body><section class="hero" data-layer-name="Hero"><h1>Build something</h1>` +
		`<p>Select an element to start editing.</p></section></body></html>`
)

// TableCreator handles the creation of the page store schema.
type TableCreator struct{}

func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent idempotently adds a welcome page to an empty store.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	var hasPages bool
	if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pages)").Scan(&hasPages); err != nil {
		return fmt.Errorf("failed to check for existing pages: %w", err)
	}
	if hasPages {
		return nil
	}

	canvasJSON, err := json.Marshal(editor.DefaultCanvasSettings())
	if err != nil {
		return fmt.Errorf("failed to encode default canvas settings: %w", err)
	}
	_, err = db.Exec(`INSERT INTO pages (id, project_id, title, html_content, css_content, background_assets, canvas_settings, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		security.GenerateULID(), DefaultProjectID, welcomeTitle, welcomeHTML, "", "[]", string(canvasJSON), time.Now().UTC().Format(TimestampLayout))
	if err != nil {
		return fmt.Errorf("failed to insert welcome page: %w", err)
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS pages (id TEXT PRIMARY KEY, project_id TEXT NOT NULL, title TEXT NOT NULL, html_content TEXT NOT NULL, css_content TEXT NOT NULL DEFAULT '', background_assets TEXT NOT NULL DEFAULT '[]', canvas_settings TEXT NOT NULL DEFAULT '{}', created TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TEXT)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_pages_project_id ON pages(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_changed ON pages(changed)`,
}
