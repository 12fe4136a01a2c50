package interview

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 50
)

var ErrNotConfigured = errors.New("interview collaborators are not configured")

type ResumeData map[string]any

type QuestionRequest struct {
	Resume        ResumeData `json:"resume_data"`
	JobRole       string     `json:"job_role"`
	Difficulty    string     `json:"difficulty"`
	InterviewType string     `json:"interview_type"`
	Page          int        `json:"page"`
	PageSize      int        `json:"page_size"`
}

func (r *QuestionRequest) Validate() error {
	if strings.TrimSpace(r.JobRole) == "" {
		return errors.New("job_role is required")
	}
	if strings.TrimSpace(r.Difficulty) == "" {
		return errors.New("difficulty is required")
	}
	if strings.TrimSpace(r.InterviewType) == "" {
		return errors.New("interview_type is required")
	}
	if r.Page < 0 || r.PageSize < 0 {
		return errors.New("page and page_size must not be negative")
	}
	if r.PageSize > MaxPageSize {
		return errors.New("page_size is too large")
	}
	return nil
}

func (r QuestionRequest) Range() (start, end int) {
	page, size := r.Page, r.PageSize
	if page <= 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	start = (page-1)*size + 1
	return start, start + size - 1
}

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, error)
}

type ResumeExtractor interface {
	ExtractResume(ctx context.Context, r io.ReaderAt, size int64) (ResumeData, error)
}

var numberedLine = regexp.MustCompile(`^\d+\.\s+(.*)$`)

func ParseNumberedQuestions(output string) []string {
	var questions []string
	for _, line := range strings.Split(output, "\n") {
		m := numberedLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

var codeFence = regexp.MustCompile("```(json)?")

func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}

type Disabled struct{}

func (Disabled) GenerateQuestions(context.Context, QuestionRequest) ([]string, error) {
	return nil, ErrNotConfigured
}

func (Disabled) ExtractResume(context.Context, io.ReaderAt, int64) (ResumeData, error) {
	return nil, ErrNotConfigured
}
