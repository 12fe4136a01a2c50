package transcriber

import (
	"context"
	"fmt"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Engine, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewEngine(context.Background(), c)
	})
}

func NewEngine(ctx context.Context, c *config.Config) (transcriber.Engine, error) {
	switch c.TranscriptionEngine {
	case config.EngineWhisper:
		engine, err := NewWhisperEngine(WhisperConfig{
			ModelPath: c.WhisperModelPath,
			Threads:   c.WhisperThreads,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.EngineGoogle:
		engine, err := NewCloudSpeechEngine(ctx, CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", c.TranscriptionEngine)
	}
}
