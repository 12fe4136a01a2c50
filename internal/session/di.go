package session

import (
	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[transcriber.Engine](i)
		normalizer := do.MustInvoke[audio.Normalizer](i)
		publisher := do.MustInvoke[events.Publisher](i)
		wh := do.MustInvoke[webhook.Sender](i)
		rec := do.MustInvoke[metrics.Recorder](i)
		return NewManager(cfg, engine, normalizer, publisher, wh, rec), nil
	})
}
