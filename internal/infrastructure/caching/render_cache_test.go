package caching

import (
	"context"
	"testing"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCacheVariants(t *testing.T) {
	cache := NewRenderCache(time.Hour)
	cache.Set("p1", false, "<p>compact</p>")
	cache.Set("p1", true, "<p>\n  pretty\n</p>")

	html, ok := cache.Get("p1", false)
	require.True(t, ok)
	assert.Equal(t, "<p>compact</p>", html)
	_, ok = cache.Get("p1", true)
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())

	cache.Invalidate("p1")
	_, ok = cache.Get("p1", false)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestRenderCacheExpiry(t *testing.T) {
	cache := NewRenderCache(time.Minute)
	cache.Set("p1", false, "x")
	cache.Set("p2", false, "y")

	assert.Equal(t, 0, cache.PurgeExpired(time.Now().UTC()))
	assert.Equal(t, 2, cache.PurgeExpired(time.Now().UTC().Add(2*time.Minute)))
	assert.Equal(t, 0, cache.Len())

	forever := NewRenderCache(0)
	forever.Set("p1", false, "x")
	assert.Equal(t, 0, forever.PurgeExpired(time.Now().Add(24*time.Hour)))
}

type stubPages struct {
	repositories.PageRepository
	saved   []string
	deleted []string
}

func (s *stubPages) SavePage(_ context.Context, req editor.SaveRequest) (*editor.Page, error) {
	s.saved = append(s.saved, req.PageID)
	return &editor.Page{PageID: req.PageID}, nil
}

func (s *stubPages) DeletePage(_ context.Context, pageID string) error {
	s.deleted = append(s.deleted, pageID)
	return repositories.ErrPageNotFound
}

func TestPageRepositoryInvalidatesOnWrite(t *testing.T) {
	cache := NewRenderCache(time.Hour)
	inner := &stubPages{}
	repo := NewPageRepository(inner, cache)

	cache.Set("p1", false, "old")
	markup := "new"
	_, err := repo.SavePage(context.Background(), editor.SaveRequest{PageID: "p1", HTMLContent: &markup})
	require.NoError(t, err)
	_, ok := cache.Get("p1", false)
	assert.False(t, ok)

	cache.Set("p2", true, "old")
	assert.ErrorIs(t, repo.DeletePage(context.Background(), "p2"), repositories.ErrPageNotFound)
	_, ok = cache.Get("p2", true)
	assert.False(t, ok)
	assert.Equal(t, []string{"p1"}, inner.saved)
	assert.Equal(t, []string{"p2"}, inner.deleted)
}
