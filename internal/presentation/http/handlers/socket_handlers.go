package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ErrUnknownCommand is returned for socket ops the dispatcher does not know.
var ErrUnknownCommand = errors.New("unknown command")

// SocketHandlers upgrades editor connections and runs their commands
// against the open session.
type SocketHandlers struct {
	sessionService *services.SessionService
	hub            *messaging.SocketHub
	upgrader       websocket.Upgrader
	logger         *logging.ChanneledLogger
}

// NewSocketHandlers accepts upgrades from the comma separated origins, or
// from any origin when origins is empty or "*".
func NewSocketHandlers(sessionService *services.SessionService, hub *messaging.SocketHub, origins string, logger *logging.ChanneledLogger) *SocketHandlers {
	allowed := splitOrigins(origins)
	return &SocketHandlers{
		sessionService: sessionService,
		hub:            hub,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
			},
		},
	}
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			return nil
		}
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// GetSocket handles GET /api/v1/sessions/:sessionId/socket
func (h *SocketHandlers) GetSocket(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if _, err := h.sessionService.Get(sessionID); err != nil {
		respondError(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.SSE().Warn("Socket upgrade failed", "sessionId", sessionID, "error", err)
		return
	}
	h.logger.SSE().Info("Socket connection established", "sessionId", sessionID)
	h.hub.Serve(c.Request.Context(), conn, sessionID, h.Dispatch)
}

// commandParams is the union of the parameters every op accepts.
type commandParams struct {
	ID       string        `json:"id"`
	XPath    string        `json:"xpath"`
	Property string        `json:"property"`
	Value    string        `json:"value"`
	Name     string        `json:"name"`
	Classes  string        `json:"classes"`
	Text     string        `json:"text"`
	HTML     string        `json:"html"`
	Query    string        `json:"query"`
	Prompt   string        `json:"prompt"`
	Stream   bool          `json:"stream"`
	Visible  bool          `json:"visible"`
	Locked   bool          `json:"locked"`
	Index    int           `json:"index"`
	Device   editor.Device `json:"device"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Scale    float64       `json:"scale"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
}

// Dispatch runs one socket command. Replies mirror the HTTP routes: element
// ops answer with the snapshot, or null when nothing changed.
func (h *SocketHandlers) Dispatch(ctx context.Context, sessionID string, cmd messaging.Command) (any, error) {
	session, err := h.sessionService.Get(sessionID)
	if err != nil {
		return nil, err
	}
	var p commandParams
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &p); err != nil {
			return nil, fmt.Errorf("invalid params for %s: %w", cmd.Op, err)
		}
	}

	switch cmd.Op {
	// selection and element edits
	case "select":
		if p.XPath != "" {
			return session.SelectQuery(ctx, p.XPath)
		}
		return session.Select(ctx, p.ID)
	case "deselect":
		return nil, session.Deselect(ctx)
	case "snapshot":
		return session.Snapshot(ctx)
	case "set_style":
		return session.SetStyle(ctx, p.ID, p.Property, p.Value)
	case "remove_style":
		return session.RemoveStyle(ctx, p.ID, p.Property)
	case "set_attribute":
		return session.SetAttribute(ctx, p.ID, p.Name, p.Value)
	case "remove_attribute":
		return session.RemoveAttribute(ctx, p.ID, p.Name)
	case "set_classes":
		return session.SetClassList(ctx, p.ID, p.Classes)
	case "set_text":
		return session.SetText(ctx, p.ID, p.Text)
	case "set_html":
		return session.SetInnerHTML(ctx, p.ID, p.HTML)
	case "set_visibility":
		return session.SetVisibility(ctx, p.ID, p.Visible)
	case "set_locked":
		return session.SetLocked(ctx, p.ID, p.Locked)

	// layer panel
	case "layers":
		if p.Query != "" {
			return session.FilterLayers(p.Query), nil
		}
		return session.Layers(), nil
	case "refresh_layers":
		return session.RefreshLayers(ctx)
	case "toggle_layer":
		return session.ToggleLayerExpanded(p.ID), nil
	case "reveal_layer":
		return session.RevealLayer(p.ID), nil

	// backgrounds
	case "add_background":
		var asset backgrounds.NewAsset
		if err := json.Unmarshal(cmd.Params, &asset); err != nil {
			return nil, fmt.Errorf("invalid params for %s: %w", cmd.Op, err)
		}
		return session.AddBackground(asset)
	case "update_background":
		var patch backgrounds.Patch
		if err := json.Unmarshal(cmd.Params, &patch); err != nil {
			return nil, fmt.Errorf("invalid params for %s: %w", cmd.Op, err)
		}
		return session.UpdateBackground(p.ID, patch)
	case "toggle_background":
		return session.ToggleBackgroundVisibility(p.ID)
	case "remove_background":
		return session.RemoveBackground(p.ID)
	case "move_background":
		return session.MoveBackground(p.ID, p.Index)

	// canvas
	case "add_artboard":
		return session.AddArtboard(p.Device)
	case "set_artboard_device":
		return session.SetArtboardDevice(p.ID, p.Device)
	case "set_artboard_dimensions":
		return session.SetArtboardDimensions(p.ID, p.Width, p.Height)
	case "duplicate_artboard":
		return session.DuplicateArtboard(p.ID)
	case "move_artboard":
		return session.MoveArtboard(p.ID, editor.Point{X: p.X, Y: p.Y})
	case "set_artboard_scale":
		return session.SetArtboardScale(p.ID, p.Scale)
	case "rename_artboard":
		return session.RenameArtboard(p.ID, p.Name)
	case "remove_artboard":
		return session.RemoveArtboard(p.ID)
	case "select_artboard":
		return session.SelectArtboard(p.ID)
	case "update_view":
		var update services.ViewUpdate
		if err := json.Unmarshal(cmd.Params, &update); err != nil {
			return nil, fmt.Errorf("invalid params for %s: %w", cmd.Op, err)
		}
		return session.UpdateView(update), nil

	// document
	case "undo":
		return session.Undo(ctx)
	case "redo":
		return session.Redo(ctx)
	case "replace_html":
		return nil, session.ReplaceHTML(ctx, p.HTML)
	case "generate":
		return nil, session.Generate(ctx, p.Prompt, p.Stream)
	case "save":
		if err := session.Flush(ctx); err != nil {
			return nil, err
		}
		return session.SaveStatus(), nil
	case "status":
		return session.Info(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
}
