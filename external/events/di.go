package events

import (
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (events.Publisher, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewKafkaPublisher(KafkaConfig{
			Enabled: c.KafkaEnabled,
			Brokers: c.KafkaBrokers,
			Topic:   c.KafkaTopic,
		}), nil
	})
}
