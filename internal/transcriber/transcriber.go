package transcriber

import (
	"context"
	"time"
)

const DefaultBeamSize = 5

type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type Options struct {
	BeamSize int
}

// Engine turns a mono 16 kHz WAV file into ordered segments.
// Implementations are shared by all sessions and must be safe for concurrent use.
type Engine interface {
	Transcribe(ctx context.Context, wavPath string, opts Options) ([]Segment, error)
	Close() error
}
