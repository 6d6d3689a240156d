// Package services provides application-level orchestration services
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/security"
)

var ErrSessionNotFound = errors.New("editor session not found")

// SessionService owns the open editor sessions. A page has at most one open
// session; opening it again returns the existing one.
type SessionService struct {
	pages        repositories.PageRepository
	publisher    messaging.Publisher
	generator    Generator
	syncConfig   SyncConfig
	historyLimit int
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker

	mu       sync.RWMutex
	sessions map[string]*EditorSession
	byPage   map[string]string
}

// NewSessionService creates a new session service
func NewSessionService(
	pages repositories.PageRepository,
	publisher messaging.Publisher,
	generator Generator,
	syncConfig SyncConfig,
	historyLimit int,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SessionService {
	return &SessionService{
		pages:        pages,
		publisher:    publisher,
		generator:    generator,
		syncConfig:   syncConfig,
		historyLimit: historyLimit,
		logger:       logger,
		perfTracker:  perfTracker,
		sessions:     make(map[string]*EditorSession),
		byPage:       make(map[string]string),
	}
}

// Open loads a page into a new editor session, seeds its synchronizer and
// starts the canvas watch loop.
func (s *SessionService) Open(ctx context.Context, projectID, pageID string) (*EditorSession, error) {
	marker := s.perfTracker.StartOperation("session:open", "")
	defer s.perfTracker.CompleteOperation(marker)

	s.mu.RLock()
	if id, ok := s.byPage[pageID]; ok {
		session := s.sessions[id]
		s.mu.RUnlock()
		if projectID != "" && session.ProjectID() != projectID {
			return nil, fmt.Errorf("failed to open page %s: %w", pageID, repositories.ErrPageNotFound)
		}
		session.touch()
		return session, nil
	}
	s.mu.RUnlock()

	page, err := s.pages.LoadPage(ctx, pageID)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to open page %s: %w", pageID, err)
	}
	if projectID != "" && page.ProjectID != projectID {
		marker.SetError(repositories.ErrPageNotFound)
		return nil, fmt.Errorf("failed to open page %s: %w", pageID, repositories.ErrPageNotFound)
	}

	id := security.GenerateULID()
	session, err := NewEditorSession(id, page, SessionOptions{
		Sync:         s.syncConfig,
		HistoryLimit: s.historyLimit,
		Save:         s.saveFunc(page.ProjectID, page.PageID),
		Publisher:    s.publisher,
		Generator:    s.generator,
		NewID:        security.GenerateULID,
		Logger:       s.logger,
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.byPage[pageID]; ok {
		winner := s.sessions[existing]
		s.mu.Unlock()
		session.Close(ctx)
		return winner, nil
	}
	s.sessions[id] = session
	s.byPage[pageID] = id
	s.mu.Unlock()

	session.startWatch()
	marker.SessionID = id
	s.logger.Editor().Info("Editor session opened", "sessionId", id, "projectId", page.ProjectID, "pageId", pageID)
	return session, nil
}

func (s *SessionService) Get(id string) (*EditorSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.touch()
	return session, nil
}

// List returns a summary of every open session ordered by open time.
func (s *SessionService) List() []SessionInfo {
	s.mu.RLock()
	sessions := make([]*EditorSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].OpenedAt.Before(infos[j].OpenedAt) })
	return infos
}

// Close flushes and stops one session.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		delete(s.byPage, session.PageID())
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	marker := s.perfTracker.StartOperation("session:close", id)
	defer s.perfTracker.CompleteOperation(marker)
	if err := session.Close(ctx); err != nil {
		marker.SetError(err)
		s.logger.Editor().Error("Editor session closed with unsaved changes", "sessionId", id, "error", err)
		return err
	}
	s.logger.Editor().Info("Editor session closed", "sessionId", id)
	return nil
}

// CloseAll closes every session, returning the joined flush errors.
func (s *SessionService) CloseAll(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := s.Close(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseIdle closes sessions not looked up for longer than maxIdle. Sessions
// for which busy reports true are kept regardless. It returns how many were
// closed.
func (s *SessionService) CloseIdle(ctx context.Context, maxIdle time.Duration, busy func(sessionID string) bool) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)
	s.mu.RLock()
	var idle []string
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) && (busy == nil || !busy(id)) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	closed := 0
	for _, id := range idle {
		err := s.Close(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		closed++
		s.logger.Editor().Info("Idle editor session closed", "sessionId", id, "saveError", err)
	}
	return closed
}

// saveFunc writes one slice of a page as a partial save request.
func (s *SessionService) saveFunc(projectID, pageID string) SaveFunc {
	return func(ctx context.Context, slice Slice, payload string) error {
		req := editor.SaveRequest{ProjectID: projectID, PageID: pageID}
		switch slice {
		case SliceHTML:
			req.HTMLContent = &payload
		case SliceBackgrounds:
			var assets []editor.BackgroundAsset
			if err := json.Unmarshal([]byte(payload), &assets); err != nil {
				return fmt.Errorf("invalid background payload: %w", err)
			}
			req.BackgroundAssets = &assets
		case SliceCanvas:
			var settings editor.CanvasSettings
			if err := json.Unmarshal([]byte(payload), &settings); err != nil {
				return fmt.Errorf("invalid canvas payload: %w", err)
			}
			req.CanvasSettings = &settings
		default:
			return fmt.Errorf("unknown slice %q", slice)
		}
		_, err := s.pages.SavePage(ctx, req)
		return err
	}
}
