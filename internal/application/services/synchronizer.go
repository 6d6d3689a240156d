package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

// Slice names one independently tracked part of the page state.
type Slice string

const (
	SliceHTML        Slice = "html"
	SliceBackgrounds Slice = "backgrounds"
	SliceCanvas      Slice = "canvas"
)

var allSlices = []Slice{SliceHTML, SliceBackgrounds, SliceCanvas}

// SaveStatus is the soft indicator shown to the user.
type SaveStatus string

const (
	StatusSaved   SaveStatus = "saved"
	StatusPending SaveStatus = "pending"
	StatusSaving  SaveStatus = "saving"
	StatusError   SaveStatus = "error"
)

// SaveFunc writes one slice's serialized payload to the page store.
type SaveFunc func(ctx context.Context, slice Slice, payload string) error

// SyncConfig holds the debounce and timeout windows of a Synchronizer.
type SyncConfig struct {
	HTMLDebounce   time.Duration
	StreamDebounce time.Duration
	AssetDebounce  time.Duration
	CanvasDebounce time.Duration
	PollInterval   time.Duration
	SaveTimeout    time.Duration
	RetryInterval  time.Duration
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		HTMLDebounce:   2 * time.Second,
		StreamDebounce: 15 * time.Second,
		AssetDebounce:  time.Second,
		CanvasDebounce: time.Second,
		PollInterval:   500 * time.Millisecond,
		SaveTimeout:    15 * time.Second,
		RetryInterval:  10 * time.Second,
	}
}

type sliceState struct {
	saved      string
	pending    string
	hasPending bool
	timer      *time.Timer
	gen        uint64
	saving     bool
	inflight   string
	failed     bool
}

// baseline is what the store holds once the current write, if any, lands.
func (st *sliceState) baseline() string {
	if st.saving {
		return st.inflight
	}
	return st.saved
}

// Synchronizer keeps the stored page eventually consistent with editor
// state. Each slice is compared against its last saved serialization and
// written on a trailing-edge debounce; identical payloads never reach the
// store.
type Synchronizer struct {
	mu        sync.Mutex
	cfg       SyncConfig
	save      SaveFunc
	logger    *logging.ChanneledLogger
	slices    map[Slice]*sliceState
	streaming bool
	closed    bool
	status    SaveStatus
	onStatus  func(SaveStatus)
	inflight  sync.WaitGroup
}

func NewSynchronizer(cfg SyncConfig, save SaveFunc, logger *logging.ChanneledLogger) *Synchronizer {
	s := &Synchronizer{
		cfg:    cfg,
		save:   save,
		logger: logger,
		slices: make(map[Slice]*sliceState, len(allSlices)),
		status: StatusSaved,
	}
	for _, slice := range allSlices {
		s.slices[slice] = &sliceState{}
	}
	return s
}

// OnStatus registers a callback invoked whenever the aggregate status
// changes.
func (s *Synchronizer) OnStatus(fn func(SaveStatus)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// Seed records freshly loaded state as already saved. It must run before
// the first Track of the slice.
func (s *Synchronizer) Seed(slice Slice, payload string) {
	s.mu.Lock()
	st := s.slices[slice]
	st.saved = payload
	st.pending = ""
	st.hasPending = false
	st.failed = false
	s.stopTimerLocked(st)
	s.mu.Unlock()
	s.publishStatus()
}

// Track reports the current serialization of a slice.
func (s *Synchronizer) Track(slice Slice, payload string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	st := s.slices[slice]
	switch {
	case payload == st.baseline():
		if !st.saving {
			st.failed = false
		}
		if st.hasPending {
			st.hasPending = false
			st.pending = ""
			s.stopTimerLocked(st)
		}
	case st.hasPending && payload == st.pending:
	default:
		st.pending = payload
		st.hasPending = true
		s.scheduleLocked(slice, st, s.debounceLocked(slice))
	}
	s.mu.Unlock()
	s.publishStatus()
}

// SetStreaming switches the HTML slice between the normal and the long
// streaming debounce. Ending a stream reschedules a pending HTML save on the
// normal window.
func (s *Synchronizer) SetStreaming(streaming bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming == streaming {
		return
	}
	s.streaming = streaming
	if st := s.slices[SliceHTML]; st.hasPending && !s.closed {
		s.scheduleLocked(SliceHTML, st, s.debounceLocked(SliceHTML))
	}
}

func (s *Synchronizer) debounceLocked(slice Slice) time.Duration {
	switch slice {
	case SliceHTML:
		if s.streaming {
			return s.cfg.StreamDebounce
		}
		return s.cfg.HTMLDebounce
	case SliceBackgrounds:
		return s.cfg.AssetDebounce
	default:
		return s.cfg.CanvasDebounce
	}
}

func (s *Synchronizer) stopTimerLocked(st *sliceState) {
	st.gen++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

func (s *Synchronizer) scheduleLocked(slice Slice, st *sliceState, delay time.Duration) {
	s.stopTimerLocked(st)
	gen := st.gen
	st.timer = time.AfterFunc(delay, func() { s.fire(slice, gen) })
}

func (s *Synchronizer) fire(slice Slice, gen uint64) {
	s.mu.Lock()
	st := s.slices[slice]
	if s.closed || st.gen != gen || !st.hasPending {
		s.mu.Unlock()
		return
	}
	if st.saving {
		s.scheduleLocked(slice, st, s.debounceLocked(slice))
		s.mu.Unlock()
		return
	}
	st.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if err := s.saveSlice(context.Background(), slice); err != nil {
		s.mu.Lock()
		if !s.closed && st.hasPending && st.timer == nil {
			s.scheduleLocked(slice, st, s.cfg.RetryInterval)
		}
		s.mu.Unlock()
	}
}

// saveSlice writes the pending payload of a slice once.
func (s *Synchronizer) saveSlice(ctx context.Context, slice Slice) error {
	s.mu.Lock()
	st := s.slices[slice]
	if !st.hasPending || st.saving {
		s.mu.Unlock()
		return nil
	}
	payload := st.pending
	st.saving = true
	st.inflight = payload
	s.mu.Unlock()
	s.publishStatus()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	start := time.Now()
	err := s.save(ctx, slice, payload)
	cancel()

	s.mu.Lock()
	st.saving = false
	st.inflight = ""
	if err != nil {
		st.failed = true
		if !st.hasPending && payload != st.saved {
			// Tracking settled on this payload while it was in flight.
			st.pending = payload
			st.hasPending = true
		}
	} else {
		st.failed = false
		st.saved = payload
		if st.hasPending && st.pending == payload {
			st.hasPending = false
			st.pending = ""
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Persistence().Error("Save failed",
			"slice", slice, "bytes", len(payload), "error", err, "duration", time.Since(start))
	} else {
		s.logger.Persistence().Info("Save completed",
			"slice", slice, "bytes", len(payload), "duration", time.Since(start))
	}
	s.publishStatus()
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", slice, err)
	}
	return nil
}

// Flush writes every pending slice now, bypassing the debounce.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	for _, slice := range allSlices {
		st := s.slices[slice]
		if st.hasPending {
			s.stopTimerLocked(st)
		}
	}
	s.mu.Unlock()
	s.inflight.Wait()

	var errs []error
	for _, slice := range allSlices {
		if err := s.saveSlice(ctx, slice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch polls read every PollInterval and tracks the result until ctx is
// done. Polling bounds the latency of high-frequency setting changes.
func (s *Synchronizer) Watch(ctx context.Context, slice Slice, read func() (string, error)) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := read()
			if err != nil {
				s.logger.Persistence().Debug("Watch read failed", "slice", slice, "error", err)
				continue
			}
			s.Track(slice, payload)
		}
	}
}

// Close stops all timers. Pending state that was not flushed is dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	for _, st := range s.slices {
		s.stopTimerLocked(st)
	}
	s.mu.Unlock()
	s.inflight.Wait()
}

// Status reports the aggregate save state across slices.
func (s *Synchronizer) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Dirty reports whether any slice differs from its last saved payload.
func (s *Synchronizer) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.slices {
		if st.hasPending {
			return true
		}
	}
	return false
}

func (s *Synchronizer) statusLocked() SaveStatus {
	var pending, failed bool
	for _, st := range s.slices {
		if st.saving {
			return StatusSaving
		}
		failed = failed || st.failed
		pending = pending || st.hasPending
	}
	switch {
	case failed:
		return StatusError
	case pending:
		return StatusPending
	default:
		return StatusSaved
	}
}

func (s *Synchronizer) publishStatus() {
	s.mu.Lock()
	status := s.statusLocked()
	changed := status != s.status
	s.status = status
	fn := s.onStatus
	s.mu.Unlock()
	if changed && fn != nil {
		fn(status)
	}
}
