package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/layers"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPages struct {
	mu    sync.Mutex
	pages map[string]*editor.Page
	saves []editor.SaveRequest
}

func newMemoryPages(pages ...*editor.Page) *memoryPages {
	m := &memoryPages{pages: make(map[string]*editor.Page)}
	for _, p := range pages {
		m.pages[p.PageID] = p
	}
	return m
}

func (m *memoryPages) LoadPage(_ context.Context, pageID string) (*editor.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPageNotFound, pageID)
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPages) SavePage(_ context.Context, req editor.SaveRequest) (*editor.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[req.PageID]
	if !ok {
		return nil, repositories.ErrPageNotFound
	}
	if req.HTMLContent != nil {
		p.HTMLContent = *req.HTMLContent
	}
	if req.BackgroundAssets != nil {
		p.BackgroundAssets = *req.BackgroundAssets
	}
	if req.CanvasSettings != nil {
		p.CanvasSettings = *req.CanvasSettings
	}
	m.saves = append(m.saves, req)
	cp := *p
	return &cp, nil
}

func (m *memoryPages) CreatePage(_ context.Context, page *editor.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page.PageID] = page
	return nil
}

func (m *memoryPages) ListPages(_ context.Context, projectID string) ([]*editor.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*editor.Page
	for _, p := range m.pages {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPages) DeletePage(_ context.Context, pageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, pageID)
	return nil
}

func (m *memoryPages) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memoryPages) stored(pageID string) editor.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.pages[pageID]
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) Publish(_, event string, _ any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func (e *eventLog) has(event string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev == event {
			return true
		}
	}
	return false
}

type scriptedGenerator struct {
	chunks []string
	final  string
	err    error
}

func (g *scriptedGenerator) Generate(context.Context, editor.GenerationRequest) (string, error) {
	return g.final, g.err
}

func (g *scriptedGenerator) Stream(_ context.Context, _ editor.GenerationRequest, onChunk func(string)) (string, error) {
	for _, c := range g.chunks {
		onChunk(c)
	}
	return g.final, g.err
}

const landingPage = `<section data-layer-name="Hero"><h1 id="title">Hello</h1><p class="lead">Body</p></section><footer>f</footer>`

func slowSync() SyncConfig {
	return SyncConfig{
		HTMLDebounce:   time.Hour,
		StreamDebounce: time.Hour,
		AssetDebounce:  time.Hour,
		CanvasDebounce: time.Hour,
		PollInterval:   10 * time.Millisecond,
		SaveTimeout:    time.Second,
		RetryInterval:  time.Hour,
	}
}

func openTestSession(t *testing.T, gen Generator) (*SessionService, *EditorSession, *memoryPages, *eventLog) {
	t.Helper()
	repo := newMemoryPages(&editor.Page{
		ProjectID:      "proj",
		PageID:         "page",
		Title:          "Landing",
		HTMLContent:    landingPage,
		CanvasSettings: editor.DefaultCanvasSettings(),
	})
	events := &eventLog{}
	svc := NewSessionService(repo, events, gen, slowSync(), 10, logging.NewDiscardLogger(), performance.NewTracker(nil))
	session, err := svc.Open(context.Background(), "proj", "page")
	require.NoError(t, err)
	t.Cleanup(func() { svc.CloseAll(context.Background()) })
	return svc, session, repo, events
}

func findLayer(t *testing.T, tree []editor.LayerNode, name string) editor.LayerNode {
	t.Helper()
	for _, n := range layers.Flatten(tree) {
		if n.DisplayName == name {
			return n
		}
	}
	t.Fatalf("layer %q not found", name)
	return editor.LayerNode{}
}

func TestSessionOpenBuildsLayersWithoutSaving(t *testing.T) {
	svc, session, repo, _ := openTestSession(t, nil)
	ctx := context.Background()

	tree := session.Layers()
	require.Len(t, tree, 2)
	assert.Equal(t, "Hero", tree[0].DisplayName)
	assert.Equal(t, "h1#title", tree[0].Children[0].DisplayName)

	again, err := svc.Open(ctx, "proj", "page")
	require.NoError(t, err)
	assert.Same(t, session, again)

	require.NoError(t, session.Flush(ctx))
	assert.Equal(t, 0, repo.saveCount())
	assert.Equal(t, StatusSaved, session.SaveStatus())
}

func TestSessionEditTracksCleanMarkup(t *testing.T) {
	_, session, repo, events := openTestSession(t, nil)
	ctx := context.Background()
	h1 := findLayer(t, session.Layers(), "h1#title")

	selected, err := session.Select(ctx, h1.ID)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "Hello", selected.TextContent)

	snap, err := session.SetStyle(ctx, h1.ID, "color", "red")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "red", snap.InlineStyles["color"])
	assert.Equal(t, "red", snap.ComputedStyles["color"])
	assert.Equal(t, StatusPending, session.SaveStatus())

	require.NoError(t, session.Flush(ctx))
	stored := repo.stored("page").HTMLContent
	assert.Contains(t, stored, `<h1 id="title" style="color: red">Hello</h1>`)
	assert.NotContains(t, stored, "data-pc-")
	assert.True(t, events.has(EventElement))
	assert.True(t, events.has(EventLayers))
}

func TestSessionUnknownAndLockedAreNoOps(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)
	ctx := context.Background()
	p := findLayer(t, session.Layers(), "p.lead")

	snap, err := session.SetStyle(ctx, "missing", "color", "red")
	assert.NoError(t, err)
	assert.Nil(t, snap)

	_, err = session.Select(ctx, p.ID)
	require.NoError(t, err)
	ok, err := session.SetLocked(ctx, p.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	current, err := session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.True(t, findLayer(t, session.Layers(), "p.lead").IsLocked)

	snap, err = session.SetText(ctx, p.ID, "changed")
	assert.NoError(t, err)
	assert.Nil(t, snap)
	selected, err := session.Select(ctx, p.ID)
	assert.NoError(t, err)
	assert.Nil(t, selected)

	html, err := session.CleanHTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Body")
	assert.Equal(t, StatusSaved, session.SaveStatus())
}

func TestSessionVisibilityUpdatesDocumentAndLayer(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)
	ctx := context.Background()
	footer := findLayer(t, session.Layers(), "footer")

	_, err := session.SetVisibility(ctx, footer.ID, false)
	require.NoError(t, err)
	assert.False(t, findLayer(t, session.Layers(), "footer").IsVisible)
	html, _ := session.CleanHTML(ctx)
	assert.Contains(t, html, `<footer style="display: none">`)

	_, err = session.SetVisibility(ctx, footer.ID, true)
	require.NoError(t, err)
	assert.True(t, findLayer(t, session.Layers(), "footer").IsVisible)
	html, _ = session.CleanHTML(ctx)
	assert.Contains(t, html, `<footer>f</footer>`)
}

func TestSessionUndoRedoKeepsIDs(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)
	ctx := context.Background()
	h1 := findLayer(t, session.Layers(), "h1#title")

	_, err := session.SetText(ctx, h1.ID, "Welcome")
	require.NoError(t, err)
	_, err = session.Select(ctx, h1.ID)
	require.NoError(t, err)

	moved, err := session.Undo(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	snap, err := session.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Hello", snap.TextContent)

	moved, err = session.Redo(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	snap, _ = session.Snapshot(ctx)
	assert.Equal(t, "Welcome", snap.TextContent)

	moved, err = session.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestSessionLayerPanelOperations(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)
	h1 := findLayer(t, session.Layers(), "h1#title")

	revealed := session.RevealLayer(h1.ID)
	assert.True(t, revealed[0].IsExpanded)

	toggled := session.ToggleLayerExpanded(revealed[0].ID)
	assert.False(t, toggled[0].IsExpanded)

	filtered := session.FilterLayers("lead")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Hero", filtered[0].DisplayName)
	assert.Len(t, session.Layers(), 2)
}

func TestSessionBackgroundsPersistAndRender(t *testing.T) {
	_, session, repo, _ := openTestSession(t, nil)
	ctx := context.Background()

	src := "https://cdn.example.com/bg.jpg"
	asset, err := session.AddBackground(backgrounds.NewAsset{Type: editor.AssetImage, Patch: backgrounds.Patch{Src: &src}})
	require.NoError(t, err)
	require.NotNil(t, asset)

	hidden, err := session.ToggleBackgroundVisibility(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, hidden.Opacity)

	opacity := 80
	_, err = session.UpdateBackground("missing", backgrounds.Patch{Opacity: &opacity})
	assert.NoError(t, err)

	require.NoError(t, session.Flush(ctx))
	stored := repo.stored("page")
	require.Len(t, stored.BackgroundAssets, 1)
	assert.Equal(t, 0, stored.BackgroundAssets[0].Opacity)
	assert.Equal(t, 100, stored.BackgroundAssets[0].RestoreOpacity)
	assert.NotContains(t, stored.HTMLContent, "pc-bg:start")

	rendered, err := session.RenderHTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, rendered, "<!-- pc-bg:start -->")
	assert.Contains(t, rendered, "https://cdn.example.com/bg.jpg")
}

func TestSessionCanvasSavedOnClose(t *testing.T) {
	svc, session, repo, _ := openTestSession(t, nil)
	ctx := context.Background()

	board, err := session.AddArtboard(editor.DeviceTablet)
	require.NoError(t, err)
	require.NotNil(t, board)
	zoom := 0.5
	session.UpdateView(ViewUpdate{Zoom: &zoom})

	removed, err := session.RemoveArtboard("missing")
	assert.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, svc.Close(ctx, session.ID()))
	stored := repo.stored("page").CanvasSettings
	require.Len(t, stored.Artboards, 1)
	assert.Equal(t, 768, stored.Artboards[0].Width)
	assert.Equal(t, 0.5, stored.Zoom)

	_, err = svc.Get(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionCanvasWatchTracksChanges(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)

	_, err := session.AddArtboard(editor.DeviceMobile)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return session.SaveStatus() == StatusPending }, time.Second, 5*time.Millisecond)
}

func TestSessionStreamingGenerationIsOneUndoStep(t *testing.T) {
	gen := &scriptedGenerator{
		chunks: []string{"<main><h2>Dra", "<main><h2>Draft</h2>"},
		final:  "<main><h2>Draft</h2><p>Done</p></main>",
	}
	_, session, repo, events := openTestSession(t, gen)
	ctx := context.Background()

	require.NoError(t, session.Generate(ctx, "make it bold", true))
	html, err := session.CleanHTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen.final, html)
	assert.True(t, events.has(EventGeneration))
	assert.Equal(t, "main", session.Layers()[0].TagName)

	moved, err := session.Undo(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	html, _ = session.CleanHTML(ctx)
	assert.True(t, strings.HasPrefix(html, `<section data-layer-name="Hero">`))

	require.NoError(t, session.Flush(ctx))
	assert.Contains(t, repo.stored("page").HTMLContent, "Hero")
}

func TestSessionGenerationRequiresGenerator(t *testing.T) {
	_, session, _, _ := openTestSession(t, nil)
	assert.ErrorIs(t, session.Generate(context.Background(), "x", false), ErrGeneratorUnavailable)
}

func TestSessionServiceOpenUnknownPage(t *testing.T) {
	svc, _, _, _ := openTestSession(t, nil)

	_, err := svc.Open(context.Background(), "proj", "nope")
	assert.ErrorIs(t, err, repositories.ErrPageNotFound)

	_, err = svc.Open(context.Background(), "other-project", "page")
	assert.ErrorIs(t, err, repositories.ErrPageNotFound)
	assert.Len(t, svc.List(), 1)
}

func TestSessionServiceCloseIdle(t *testing.T) {
	svc, session, _, _ := openTestSession(t, nil)
	ctx := context.Background()

	assert.Zero(t, svc.CloseIdle(ctx, time.Hour, nil))

	session.lastActive.Store(time.Now().Add(-2 * time.Hour).UnixNano())
	busy := func(id string) bool { return id == session.ID() }
	assert.Zero(t, svc.CloseIdle(ctx, time.Hour, busy))

	assert.Equal(t, 1, svc.CloseIdle(ctx, time.Hour, nil))
	_, err := svc.Get(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionCloseSavesUntrackedMarkup(t *testing.T) {
	svc, session, repo, _ := openTestSession(t, nil)
	ctx := context.Background()

	// a mutation that landed without being tracked, as when a caller's
	// context ends while its frame call is still running
	require.NoError(t, session.frame.Do(ctx, func(d *dom.Document) error {
		n, err := d.QueryOne("//footer")
		if err != nil {
			return err
		}
		return d.SetTextContent(n, "changed")
	}))
	assert.False(t, session.sync.Dirty())

	require.NoError(t, svc.Close(ctx, session.ID()))
	assert.Contains(t, repo.stored("page").HTMLContent, "<footer>changed</footer>")
}
