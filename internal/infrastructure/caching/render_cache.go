// Package caching provides the rendered page cache.
package caching

import (
	"sync"
	"time"
)

// RenderedPage is one cached publishable render of a stored page.
type RenderedPage struct {
	HTML        string
	PageID      string
	Pretty      bool
	LastUpdated time.Time
}

// RenderCache holds publishable renders per page. Entries expire after ttl
// and are dropped whenever their page is written.
type RenderCache struct {
	pages map[string]map[bool]*RenderedPage
	ttl   time.Duration
	mu    sync.RWMutex
}

// NewRenderCache creates a cache whose entries live for ttl. A zero ttl
// keeps entries until their page changes.
func NewRenderCache(ttl time.Duration) *RenderCache {
	return &RenderCache{
		pages: make(map[string]map[bool]*RenderedPage),
		ttl:   ttl,
	}
}

func (rc *RenderCache) expired(entry *RenderedPage, now time.Time) bool {
	return rc.ttl > 0 && now.Sub(entry.LastUpdated) > rc.ttl
}

// Get returns a live render of pageID in the requested variant.
func (rc *RenderCache) Get(pageID string, pretty bool) (string, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	entry, ok := rc.pages[pageID][pretty]
	if !ok || rc.expired(entry, time.Now().UTC()) {
		return "", false
	}
	return entry.HTML, true
}

func (rc *RenderCache) Set(pageID string, pretty bool, html string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	variants, ok := rc.pages[pageID]
	if !ok {
		variants = make(map[bool]*RenderedPage, 2)
		rc.pages[pageID] = variants
	}
	variants[pretty] = &RenderedPage{
		HTML:        html,
		PageID:      pageID,
		Pretty:      pretty,
		LastUpdated: time.Now().UTC(),
	}
}

// Invalidate drops every variant of pageID.
func (rc *RenderCache) Invalidate(pageID string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.pages, pageID)
}

// Len reports the number of cached renders.
func (rc *RenderCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	n := 0
	for _, variants := range rc.pages {
		n += len(variants)
	}
	return n
}

// PurgeExpired removes entries older than the ttl and returns how many were
// removed.
func (rc *RenderCache) PurgeExpired(now time.Time) int {
	if rc.ttl <= 0 {
		return 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	purged := 0
	for pageID, variants := range rc.pages {
		for variant, entry := range variants {
			if rc.expired(entry, now) {
				delete(variants, variant)
				purged++
			}
		}
		if len(variants) == 0 {
			delete(rc.pages, pageID)
		}
	}
	return purged
}
