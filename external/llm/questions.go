package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/sashabaranov/go-openai"
)

const (
	questionMaxTokens   = 500
	questionTemperature = 0.6
)

type QuestionGenerator struct {
	client *openai.Client
	model  string
}

func NewQuestionGenerator(client *openai.Client, model string) *QuestionGenerator {
	return &QuestionGenerator{client: client, model: model}
}

func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, req interview.QuestionRequest) ([]string, error) {
	prompt, err := buildQuestionPrompt(req)
	if err != nil {
		return nil, err
	}
	output, err := complete(ctx, g.client, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   questionMaxTokens,
		Temperature: questionTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	return interview.ParseNumberedQuestions(output), nil
}

func buildQuestionPrompt(req interview.QuestionRequest) (string, error) {
	resume, err := json.Marshal(req.Resume)
	if err != nil {
		return "", fmt.Errorf("encode resume: %w", err)
	}
	start, end := req.Range()

	var b strings.Builder
	b.WriteString("You are an AI technical interviewer.\n\n")
	b.WriteString("Based on the candidate's resume and interview settings:\n\n")
	fmt.Fprintf(&b, "Resume:\n%s\n\n", resume)
	fmt.Fprintf(&b, "Job Role: %s\nDifficulty: %s\nInterview Type: %s\n\n", req.JobRole, req.Difficulty, req.InterviewType)
	fmt.Fprintf(&b, "Generate interview questions NUMBERED from %d to %d.\n\n", start, end)
	b.WriteString("STRICT RULES:\n")
	fmt.Fprintf(&b, "- Output ONLY questions %d to %d\n", start, end)
	b.WriteString("- No explanations\n- No extra text\n- Format:\n")
	fmt.Fprintf(&b, "  %d. <question>\n", start)
	if end > start {
		fmt.Fprintf(&b, "  %d. <question>\n", start+1)
	}
	if end > start+1 {
		fmt.Fprintf(&b, "  ...\n  %d. <question>\n", end)
	}
	return b.String(), nil
}

var errEmptyCompletion = errors.New("model returned no choices")

func complete(ctx context.Context, client *openai.Client, req openai.ChatCompletionRequest) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
