package dom

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrFrameClosed = errors.New("frame is closed")

type call struct {
	fn   func(*Document) error
	done chan error
}

// Frame isolates a Document behind a single goroutine. Every read and write
// crosses the boundary as a message, mirroring an iframe that cannot be
// touched directly.
type Frame struct {
	doc      *Document
	calls    chan call
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFrame starts the frame loop for doc.
func NewFrame(doc *Document) *Frame {
	f := &Frame{
		doc:   doc,
		calls: make(chan call),
		quit:  make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

func (f *Frame) run() {
	defer f.wg.Done()
	for {
		select {
		case c := <-f.calls:
			c.done <- f.invoke(c.fn)
		case <-f.quit:
			return
		}
	}
}

func (f *Frame) invoke(fn func(*Document) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame call panicked: %v", r)
		}
	}()
	return fn(f.doc)
}

// Do runs fn on the frame goroutine and waits for it. A cancelled ctx
// returns early; fn may still complete afterwards.
func (f *Frame) Do(ctx context.Context, fn func(*Document) error) error {
	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case f.calls <- c:
	case <-f.quit:
		return ErrFrameClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. It is safe to call more than once.
func (f *Frame) Close() {
	f.stopOnce.Do(func() { close(f.quit) })
	f.wg.Wait()
}
