//go:build !whisper

package transcriber

import (
	"context"
	"errors"

	"github.com/foxseedlab/kikitori/internal/transcriber"
)

var errWhisperUnavailable = errors.New("whisper engine is not compiled in; rebuild with -tags whisper")

type WhisperEngine struct{}

func NewWhisperEngine(_ WhisperConfig) (*WhisperEngine, error) {
	return nil, errWhisperUnavailable
}

func (e *WhisperEngine) Transcribe(_ context.Context, _ string, _ transcriber.Options) ([]transcriber.Segment, error) {
	return nil, errWhisperUnavailable
}

func (e *WhisperEngine) Close() error {
	return nil
}
