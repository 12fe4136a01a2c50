package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/sashabaranov/go-openai"
)

const (
	resumeSystemPrompt = "Return only valid JSON. No markdown, no explanation."
	repairSystemPrompt = "Fix invalid JSON and output only correct JSON."

	resumePromptTemplate = `You are an expert resume parser.
Extract the following information strictly in JSON format:
- contact: name, phone, email, linkedin, github
- summary
- education: list with institution, duration, degree, location, scores
- projects: list with title, year, description
- experience: list with role, company, duration, description
- skills: programming, frameworks/tools, soft skills
- certifications
- achievements

RULES:
- Return only VALID JSON.
- No markdown.
- No text before or after the JSON.
- No comments.

Resume Text:
%s
`

	repairPromptTemplate = `Fix this text and return VALID JSON only.
Remove markdown, remove explanations, correct format.

Text:
%s
`

	invalidJSONTwiceMessage = "OpenAI returned invalid JSON twice."
)

type ResumeExtractor struct {
	client *openai.Client
	model  string
}

func NewResumeExtractor(client *openai.Client, model string) *ResumeExtractor {
	return &ResumeExtractor{client: client, model: model}
}

func (e *ResumeExtractor) ExtractResume(ctx context.Context, r io.ReaderAt, size int64) (interview.ResumeData, error) {
	text, err := extractPDFText(r, size)
	if err != nil {
		return nil, err
	}
	return e.parseResumeText(ctx, text)
}

func (e *ResumeExtractor) parseResumeText(ctx context.Context, text string) (interview.ResumeData, error) {
	raw, err := e.ask(ctx, resumeSystemPrompt, fmt.Sprintf(resumePromptTemplate, text))
	if err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}
	if data, ok := decodeResume(raw); ok {
		return data, nil
	}
	slog.Warn("resume extraction returned invalid JSON, requesting repair", "raw_bytes", len(raw))

	fixed, err := e.ask(ctx, repairSystemPrompt, fmt.Sprintf(repairPromptTemplate, raw))
	if err != nil {
		return nil, fmt.Errorf("repair resume JSON: %w", err)
	}
	if data, ok := decodeResume(fixed); ok {
		return data, nil
	}
	slog.Warn("resume repair returned invalid JSON", "fixed_bytes", len(fixed))
	return interview.ResumeData{
		"error":        invalidJSONTwiceMessage,
		"raw_output":   raw,
		"fixed_output": fixed,
	}, nil
}

func (e *ResumeExtractor) ask(ctx context.Context, system, user string) (string, error) {
	out, err := complete(ctx, e.client, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	return interview.StripCodeFence(out), nil
}

func decodeResume(s string) (interview.ResumeData, bool) {
	var data interview.ResumeData
	if err := json.Unmarshal([]byte(s), &data); err != nil || data == nil {
		return nil, false
	}
	return data, true
}
