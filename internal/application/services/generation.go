package services

import (
	"context"
	"errors"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

var (
	ErrGeneratorUnavailable = errors.New("no generator configured")
	ErrGenerationInProgress = errors.New("generation already in progress")
)

// Generator produces page markup from a prompt. Implementations return
// markup that is already safe to load into the live document; onChunk
// receives the accumulated partial result while streaming.
type Generator interface {
	Generate(ctx context.Context, req editor.GenerationRequest) (string, error)
	Stream(ctx context.Context, req editor.GenerationRequest, onChunk func(partial string)) (string, error)
}

// GenerationEvent is published while a generation runs.
type GenerationEvent struct {
	Status string `json:"status"`
	Bytes  int    `json:"bytes"`
	Error  string `json:"error,omitempty"`
}
