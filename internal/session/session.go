package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
)

type State int

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var ErrSessionClosed = errors.New("session is closed")

type Stage string

const (
	StageWrite      Stage = "write"
	StageTranscode  Stage = "transcode"
	StageTranscribe Stage = "transcribe"
	StageTimeout    Stage = "timeout"
)

type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == StageTimeout {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Update struct {
	Text     string
	ChunkSeq int
}

type acceptedSegment struct {
	chunkSeq   int
	receivedAt time.Time
	text       string
}

type pipeline struct {
	engine       transcriber.Engine
	normalizer   audio.Normalizer
	publisher    events.Publisher
	metrics      metrics.Recorder
	tempDir      string
	chunkTimeout time.Duration
	now          func() time.Time
}

type Session struct {
	id        string
	startedAt time.Time
	p         *pipeline

	mu         sync.Mutex
	state      State
	transcript string
	chunkSeq   int
	segments   []acceptedSegment
}

func newSession(id string, p *pipeline) *Session {
	return &Session{
		id:        id,
		startedAt: p.now(),
		p:         p,
		state:     StateOpen,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// ProcessChunk returns a nil Update and nil error when the chunk held no speech.
func (s *Session) ProcessChunk(ctx context.Context, data []byte, formatHint string) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	s.chunkSeq++
	seq := s.chunkSeq
	s.p.metrics.ChunkReceived(len(data))

	declared, format := audio.Resolve(formatHint, data)
	if declared != format {
		slog.Warn("chunk bytes do not match declared format", "session_id", s.id, "chunk_seq", seq, "declared", declared, "detected", format)
	}

	chunkCtx, cancel := context.WithTimeout(ctx, s.p.chunkTimeout)
	defer cancel()

	text, err := s.transcribeChunk(chunkCtx, data, format)
	// a result that arrives after the deadline is discarded as well
	if errors.Is(chunkCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = &StageError{Stage: StageTimeout, Err: fmt.Errorf("chunk processing timed out after %s", s.p.chunkTimeout)}
	}
	if err != nil {
		s.recordFailure(seq, format, err)
		return nil, err
	}
	if text == "" {
		s.p.metrics.ChunkProcessed(metrics.OutcomeEmpty)
		slog.Debug("chunk produced no speech", "session_id", s.id, "chunk_seq", seq, "format", format)
		return nil, nil
	}

	receivedAt := s.p.now()
	s.transcript = appendTranscript(s.transcript, text)
	s.segments = append(s.segments, acceptedSegment{chunkSeq: seq, receivedAt: receivedAt, text: text})
	s.p.metrics.ChunkProcessed(metrics.OutcomeTranscript)

	if err := s.p.publisher.PublishTranscript(ctx, events.TranscriptEvent{
		SessionID:  s.id,
		ChunkSeq:   seq,
		Text:       text,
		Transcript: s.transcript,
		At:         receivedAt,
	}); err != nil {
		slog.Warn("failed to publish transcript event", "error", err, "session_id", s.id, "chunk_seq", seq)
	}

	return &Update{Text: s.transcript, ChunkSeq: seq}, nil
}

func (s *Session) transcribeChunk(ctx context.Context, data []byte, format audio.Format) (string, error) {
	files, err := createWorkingFiles(s.p.tempDir, format, data)
	if err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}
	defer files.release()

	wavPath := files.raw
	if audio.NeedsNormalizing(format, data) {
		wavPath = files.normalizedPath()
		started := time.Now()
		err := s.p.normalizer.Normalize(ctx, files.raw, wavPath)
		s.p.metrics.ObserveStage(string(StageTranscode), time.Since(started))
		if err != nil {
			return "", &StageError{Stage: StageTranscode, Err: err}
		}
	}

	started := time.Now()
	segments, err := s.p.engine.Transcribe(ctx, wavPath, transcriber.Options{BeamSize: transcriber.DefaultBeamSize})
	s.p.metrics.ObserveStage(string(StageTranscribe), time.Since(started))
	if err != nil {
		return "", &StageError{Stage: StageTranscribe, Err: err}
	}
	return joinSegments(segments), nil
}

func (s *Session) recordFailure(seq int, format audio.Format, err error) {
	stage := "unknown"
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		stage = string(stageErr.Stage)
	}
	s.p.metrics.ChunkFailed(stage)
	s.p.metrics.ChunkProcessed(metrics.OutcomeError)
	slog.Warn("chunk processing failed", "error", err, "session_id", s.id, "chunk_seq", seq, "format", format, "stage", stage)
}

type closedSession struct {
	id         string
	startedAt  time.Time
	endedAt    time.Time
	chunkCount int
	transcript string
	segments   []acceptedSegment
}

func (s *Session) close() (closedSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return closedSession{}, false
	}
	s.state = StateClosed
	return closedSession{
		id:         s.id,
		startedAt:  s.startedAt,
		endedAt:    s.p.now(),
		chunkCount: s.chunkSeq,
		transcript: s.transcript,
		segments:   append([]acceptedSegment(nil), s.segments...),
	}, true
}

func joinSegments(segments []transcriber.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func appendTranscript(current, text string) string {
	if current == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(current + " " + text)
}
