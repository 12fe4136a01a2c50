package audio

import (
	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Normalizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFFmpegNormalizer(c.FFmpegPath), nil
	})
}
