package server

import (
	metricsimpl "github.com/foxseedlab/kikitori/external/metrics"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/foxseedlab/kikitori/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		c := do.MustInvoke[*config.Config](i)
		recorder := do.MustInvoke[*metricsimpl.PrometheusRecorder](i)
		return New(c, Dependencies{
			Sessions:       do.MustInvoke[*session.Manager](i),
			Metrics:        recorder,
			MetricsHandler: recorder.Handler(),
			Questions:      do.MustInvoke[interview.QuestionGenerator](i),
			Resumes:        do.MustInvoke[interview.ResumeExtractor](i),
		}), nil
	})
}
