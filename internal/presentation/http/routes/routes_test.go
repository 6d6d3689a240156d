package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/container"
	schema "github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/pages"
	"github.com/AtRiskMedia/pagecraft-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html><html><head><title>T</title></head><body><section data-layer-name="Hero"><h1>Hello</h1></section></body></html>`

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (a *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AdminPassword = "admin-secret"
	config.EditorPassword = "editor-secret"
	config.JWTSecret = "test-signing-key"
	config.AIEndpoint = ""
	config.MediaDir = t.TempDir()

	logger := logging.NewDiscardLogger()
	db, err := database.NewConnection(database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	}, logger)
	require.NoError(t, err)
	require.NoError(t, schema.NewTableCreator().CreateSchema(db.DB))

	c := container.Wire(db, pages.NewPageRepository(db.DB, logger), logger,
		logging.NewLogBroadcaster(), performance.NewTracker(performance.DefaultTrackerConfig()))
	t.Cleanup(func() {
		c.SessionService.CloseAll(context.Background())
		c.Close()
	})
	return &apiClient{t: t, router: SetupRoutes(c)}
}

func (a *apiClient) login(password string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", gin.H{"password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	a.token = decode(a.t, w)["token"].(string)
}

func TestHealthIsPublic(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestEditorRoutesRequireLogin(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/api/v1/pages?projectId=p", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/login", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	api.login("editor-secret")
	w = api.do(http.MethodGet, "/api/v1/pages?projectId=p", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Admin-only routes reject editors.
	w = api.do(http.MethodGet, "/api/v1/system/performance", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	api.login("admin-secret")
	w = api.do(http.MethodGet, "/api/v1/system/performance", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEditingRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.login("editor-secret")

	w := api.do(http.MethodPost, "/api/v1/pages", gin.H{"projectId": "proj", "title": "Landing", "htmlContent": testPage})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pageID := decode(t, w)["pageId"].(string)

	w = api.do(http.MethodPost, "/api/v1/sessions", gin.H{"projectId": "proj", "pageId": pageID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	opened := decode(t, w)
	sessionID := opened["session"].(map[string]any)["id"].(string)
	assert.NotEmpty(t, opened["layers"])
	base := "/api/v1/sessions/" + sessionID

	w = api.do(http.MethodPost, base+"/selection", gin.H{"xpath": "//h1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	selected := decode(t, w)
	require.Equal(t, true, selected["applied"])
	h1 := selected["selection"].(map[string]any)
	assert.Equal(t, "h1", h1["tagName"])
	elementID := h1["id"].(string)

	w = api.do(http.MethodPut, base+"/elements/"+elementID+"/style", gin.H{"property": "color", "value": "red"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["applied"])

	// Unknown ids are a silent no-op.
	w = api.do(http.MethodPut, base+"/elements/missing/style", gin.H{"property": "color", "value": "blue"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["applied"])

	w = api.do(http.MethodPut, base+"/elements/"+elementID+"/style", gin.H{"property": "", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, base+"/elements/"+elementID+"/html", gin.H{"html": `Hi<script>alert(1)</script>`})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = api.do(http.MethodGet, base+"/html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `style="color: red"`)
	assert.NotContains(t, w.Body.String(), "data-pc-")

	w = api.do(http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["applied"])
	w = api.do(http.MethodGet, base+"/html", nil)
	assert.NotContains(t, w.Body.String(), "color: red")

	w = api.do(http.MethodPost, base+"/artboards", gin.H{"device": "tablet"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	artboard := decode(t, w)["artboard"].(map[string]any)
	assert.Equal(t, float64(768), artboard["width"])
	artboardID := artboard["id"].(string)

	w = api.do(http.MethodGet, base+"/artboards/"+artboardID+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")

	w = api.do(http.MethodGet, base+"/artboards/nope/preview", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, base+"/artboards", gin.H{"device": "watch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, base+"/backgrounds", gin.H{"type": "image", "src": "/media/a.webp"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	asset := decode(t, w)["asset"].(map[string]any)
	assert.Equal(t, float64(100), asset["opacity"])

	w = api.do(http.MethodPost, base+"/generate", gin.H{"prompt": "a bakery landing page"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = api.do(http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/pages/"+pageID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode(t, w)
	assert.NotContains(t, stored["htmlContent"], "color: red")
	assert.Len(t, stored["backgroundAssets"], 1)
	canvas := stored["canvasSettings"].(map[string]any)
	assert.Len(t, canvas["artboards"], 1)

	w = api.do(http.MethodGet, "/api/v1/pages/"+pageID+"/render", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pc-bg:start")
}

func TestOpenUnknownPage(t *testing.T) {
	api := newTestAPI(t)
	api.login("editor-secret")
	w := api.do(http.MethodPost, "/api/v1/sessions", gin.H{"projectId": "proj", "pageId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/sessions", gin.H{"projectId": "proj"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
