package pages

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	schema "github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*PageRepository, *database.DB) {
	t.Helper()
	logger := logging.NewDiscardLogger()
	db, err := database.NewConnection(database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "pages.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.NewTableCreator().CreateSchema(db.DB))
	return NewPageRepository(db.DB, logger), db
}

func TestCreateAndLoadPage(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	page := &editor.Page{
		ProjectID:      "proj",
		PageID:         "page-1",
		Title:          "Landing",
		HTMLContent:    "<h1>Hi</h1>",
		CanvasSettings: editor.DefaultCanvasSettings(),
	}
	require.NoError(t, repo.CreatePage(ctx, page))

	loaded, err := repo.LoadPage(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "proj", loaded.ProjectID)
	assert.Equal(t, "<h1>Hi</h1>", loaded.HTMLContent)
	assert.Empty(t, loaded.BackgroundAssets)
	assert.NotNil(t, loaded.BackgroundAssets)
	assert.Equal(t, 1.0, loaded.CanvasSettings.Zoom)
	assert.False(t, loaded.Created.IsZero())
	assert.Nil(t, loaded.UpdatedAt)

	_, err = repo.LoadPage(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrPageNotFound)
}

func TestSavePageIsPartial(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreatePage(ctx, &editor.Page{
		ProjectID:      "proj",
		PageID:         "page-1",
		Title:          "Landing",
		HTMLContent:    "<h1>Hi</h1>",
		CanvasSettings: editor.DefaultCanvasSettings(),
	}))

	assets := []editor.BackgroundAsset{{ID: "bg1", Type: editor.AssetImage, Src: "/media/a.webp", Opacity: 80, ZIndex: -1}}
	saved, err := repo.SavePage(ctx, editor.SaveRequest{ProjectID: "proj", PageID: "page-1", BackgroundAssets: &assets})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", saved.HTMLContent)
	require.Len(t, saved.BackgroundAssets, 1)
	assert.Equal(t, 80, saved.BackgroundAssets[0].Opacity)
	require.NotNil(t, saved.UpdatedAt)

	markup := "<h1>Changed</h1>"
	canvas := editor.DefaultCanvasSettings()
	canvas.Zoom = 0.75
	canvas.Artboards = []editor.Artboard{{ID: "a1", Name: "Tablet", Device: editor.DeviceTablet, Width: 768, Height: 1024, Scale: 1}}
	saved, err = repo.SavePage(ctx, editor.SaveRequest{PageID: "page-1", HTMLContent: &markup, CanvasSettings: &canvas})
	require.NoError(t, err)
	assert.Equal(t, markup, saved.HTMLContent)
	assert.Len(t, saved.BackgroundAssets, 1)
	assert.Equal(t, 0.75, saved.CanvasSettings.Zoom)
	require.Len(t, saved.CanvasSettings.Artboards, 1)
	assert.Equal(t, 768, saved.CanvasSettings.Artboards[0].Width)
}

func TestSavePageChecksProject(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreatePage(ctx, &editor.Page{ProjectID: "proj", PageID: "page-1", HTMLContent: "x"}))

	markup := "y"
	_, err := repo.SavePage(ctx, editor.SaveRequest{ProjectID: "other", PageID: "page-1", HTMLContent: &markup})
	assert.ErrorIs(t, err, repositories.ErrPageNotFound)

	_, err = repo.SavePage(ctx, editor.SaveRequest{PageID: "missing", HTMLContent: &markup})
	assert.ErrorIs(t, err, repositories.ErrPageNotFound)
}

func TestListAndDeletePages(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, repo.CreatePage(ctx, &editor.Page{ProjectID: "proj", PageID: id, HTMLContent: id}))
	}
	require.NoError(t, repo.CreatePage(ctx, &editor.Page{ProjectID: "other", PageID: "c", HTMLContent: "c"}))

	list, err := repo.ListPages(ctx, "proj")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.DeletePage(ctx, "a"))
	assert.ErrorIs(t, repo.DeletePage(ctx, "a"), repositories.ErrPageNotFound)

	list, err = repo.ListPages(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].PageID)

	empty, err := repo.ListPages(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSeedInitialContentIsIdempotent(t *testing.T) {
	repo, db := newTestRepository(t)
	creator := schema.NewTableCreator()
	require.NoError(t, creator.SeedInitialContent(db.DB))
	require.NoError(t, creator.SeedInitialContent(db.DB))

	list, err := repo.ListPages(context.Background(), schema.DefaultProjectID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].HTMLContent, `data-layer-name="Hero"`)
}
