package llm

import (
	"log/slog"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/samber/do/v2"
	"github.com/sashabaranov/go-openai"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*openai.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return openai.NewClient(c.OpenAIAPIKey), nil
	})
	do.Provide(injector, func(i do.Injector) (interview.QuestionGenerator, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.CollaboratorsEnabled() {
			slog.Info("OPENAI_API_KEY not set, question generation disabled")
			return interview.Disabled{}, nil
		}
		return NewQuestionGenerator(do.MustInvoke[*openai.Client](i), c.OpenAIQuestionModel), nil
	})
	do.Provide(injector, func(i do.Injector) (interview.ResumeExtractor, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.CollaboratorsEnabled() {
			slog.Info("OPENAI_API_KEY not set, resume extraction disabled")
			return interview.Disabled{}, nil
		}
		return NewResumeExtractor(do.MustInvoke[*openai.Client](i), c.OpenAIResumeModel), nil
	})
}
