//go:build whisper

package transcriber

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/foxseedlab/kikitori/internal/transcriber"
	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type WhisperEngine struct {
	model    whisper.Model
	language string
	threads  uint
	sem      chan struct{}
}

func NewWhisperEngine(cfg WhisperConfig) (*WhisperEngine, error) {
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", cfg.ModelPath, err)
	}
	multilingual := model.IsMultilingual()
	slog.Info("whisper model loaded", "model_path", cfg.ModelPath, "multilingual", multilingual)
	if !multilingual {
		slog.Info("whisper model is English-only, language auto-detection disabled", "model_path", cfg.ModelPath)
	}
	return &WhisperEngine{
		model:    model,
		language: whisperLanguage(multilingual),
		threads:  uint(cfg.Threads),
		sem:      make(chan struct{}, 1),
	}, nil
}

func (e *WhisperEngine) Transcribe(ctx context.Context, wavPath string, opts transcriber.Options) ([]transcriber.Segment, error) {
	samples, err := readMonoSamples(wavPath)
	if err != nil {
		return nil, err
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.sem }()

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}
	if e.language != "" {
		if err := wctx.SetLanguage(e.language); err != nil {
			return nil, fmt.Errorf("set whisper language: %w", err)
		}
	}
	if opts.BeamSize > 0 {
		wctx.SetBeamSize(opts.BeamSize)
	}
	if e.threads > 0 {
		wctx.SetThreads(e.threads)
	}

	if err := wctx.Process(samples, continueWhileActive(ctx), nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var segments []transcriber.Segment
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper next segment: %w", err)
		}
		segments = append(segments, transcriber.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  stripNonSpeechMarkers(seg.Text),
		})
	}
	return segments, nil
}

func (e *WhisperEngine) Close() error {
	return e.model.Close()
}
