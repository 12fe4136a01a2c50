package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/sashabaranov/go-openai"
)

type fakeChatServer struct {
	mu       sync.Mutex
	replies  []string
	requests []openai.ChatCompletionRequest
}

func (f *fakeChatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": reply},
		}},
	})
}

func newFakeClient(t *testing.T, replies ...string) (*openai.Client, *fakeChatServer) {
	t.Helper()
	fake := &fakeChatServer{replies: replies}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(cfg), fake
}

func TestGenerateQuestions(t *testing.T) {
	client, fake := newFakeClient(t, "11. What is a goroutine?\n12. How do channels block?\nThat's all.")
	gen := NewQuestionGenerator(client, "gpt-4o-mini")

	questions, err := gen.GenerateQuestions(context.Background(), interview.QuestionRequest{
		Resume:        interview.ResumeData{"skills": []string{"Go"}},
		JobRole:       "Backend Engineer",
		Difficulty:    "medium",
		InterviewType: "technical",
		Page:          2,
		PageSize:      10,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(questions) != 2 || questions[0] != "What is a goroutine?" || questions[1] != "How do channels block?" {
		t.Fatalf("unexpected questions: %#v", questions)
	}

	req := fake.requests[0]
	if req.Model != "gpt-4o-mini" || req.MaxTokens != 500 {
		t.Fatalf("unexpected request settings: model=%s max_tokens=%d", req.Model, req.MaxTokens)
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, "NUMBERED from 11 to 20") {
		t.Fatalf("expected page-relative numbering in prompt: %s", prompt)
	}
	if !strings.Contains(prompt, "Job Role: Backend Engineer") {
		t.Fatalf("expected job role in prompt: %s", prompt)
	}
}

func TestParseResumeText_ValidJSON(t *testing.T) {
	client, fake := newFakeClient(t, "```json\n{\"summary\":\"Go developer\"}\n```")
	ext := NewResumeExtractor(client, "gpt-4.1-mini")

	data, err := ext.parseResumeText(context.Background(), "Jane Doe\nGo developer")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if data["summary"] != "Go developer" {
		t.Fatalf("unexpected data: %v", data)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected a single request, got %d", len(fake.requests))
	}
	if fake.requests[0].Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatal("expected a system message first")
	}
}

func TestParseResumeText_RepairsInvalidJSON(t *testing.T) {
	client, fake := newFakeClient(t, "{summary: broken", `{"summary":"fixed"}`)
	ext := NewResumeExtractor(client, "gpt-4.1-mini")

	data, err := ext.parseResumeText(context.Background(), "resume")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if data["summary"] != "fixed" {
		t.Fatalf("unexpected data: %v", data)
	}
	if len(fake.requests) != 2 {
		t.Fatalf("expected repair request, got %d requests", len(fake.requests))
	}
	if !strings.Contains(fake.requests[1].Messages[1].Content, "{summary: broken") {
		t.Fatal("expected raw output in repair prompt")
	}
}

func TestParseResumeText_InvalidTwice(t *testing.T) {
	client, _ := newFakeClient(t, "not json", "still not json")
	ext := NewResumeExtractor(client, "gpt-4.1-mini")

	data, err := ext.parseResumeText(context.Background(), "resume")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if data["error"] != "OpenAI returned invalid JSON twice." {
		t.Fatalf("unexpected error field: %v", data["error"])
	}
	if data["raw_output"] != "not json" || data["fixed_output"] != "still not json" {
		t.Fatalf("unexpected outputs: %v", data)
	}
}

func TestExtractResume_RejectsNonPDF(t *testing.T) {
	client, fake := newFakeClient(t)
	ext := NewResumeExtractor(client, "gpt-4.1-mini")

	body := []byte("plain text, not a pdf")
	if _, err := ext.ExtractResume(context.Background(), bytes.NewReader(body), int64(len(body))); err == nil {
		t.Fatal("expected error for non-PDF upload")
	}
	if len(fake.requests) != 0 {
		t.Fatal("expected no model call for unreadable PDF")
	}
}

func TestCleanLines(t *testing.T) {
	got := cleanLines("  Jane   Doe \n\tSenior\t Engineer  ")
	if got != "Jane Doe\nSenior Engineer" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}
