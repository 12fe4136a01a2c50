package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/session"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
)

// echoEngine transcribes a file by returning its content, so tests can choose
// the recognized text through the chunk payload.
type echoEngine struct {
	panicOn string
}

func (e *echoEngine) Transcribe(_ context.Context, wavPath string, _ transcriber.Options) ([]transcriber.Segment, error) {
	b, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	text := string(b)
	if e.panicOn != "" && text == e.panicOn {
		panic("engine blew up")
	}
	return []transcriber.Segment{{Text: text}}, nil
}

func (e *echoEngine) Close() error { return nil }

type copyNormalizer struct{}

func (copyNormalizer) Normalize(_ context.Context, src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if string(b) == "corrupt" {
		return errors.New("ffmpeg exited with status 1: Invalid data found when processing input")
	}
	return os.WriteFile(dst, b, 0o600)
}

type nopPublisher struct{}

func (nopPublisher) PublishTranscript(context.Context, events.TranscriptEvent) error { return nil }
func (nopPublisher) Close() error                                                    { return nil }

type nopWebhook struct{}

func (nopWebhook) SendTranscript(context.Context, webhook.TranscriptWebhookPayload) error {
	return nil
}

type fakeConn struct {
	mu      sync.Mutex
	inbound [][]byte
	readErr error
	written []string
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbound) == 0 {
		if c.readErr != nil {
			return nil, c.readErr
		}
		return nil, io.EOF
	}
	msg := c.inbound[0]
	c.inbound = c.inbound[1:]
	return msg, nil
}

func (c *fakeConn) WriteJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(b))
	return nil
}

func newTestGateway(t *testing.T, engine transcriber.Engine) (*Gateway, *session.Manager) {
	t.Helper()
	cfg := &config.Config{AudioTempDir: t.TempDir(), ChunkTimeout: 2 * time.Second}
	manager := session.NewManager(cfg, engine, copyNormalizer{}, nopPublisher{}, nopWebhook{}, nil)
	return New(manager, nil), manager
}

func audioChunk(text, format string) []byte {
	msg := map[string]string{
		"type":   "audio_chunk",
		"data":   base64.StdEncoding.EncodeToString([]byte(text)),
		"format": format,
	}
	b, _ := json.Marshal(msg)
	return b
}

func serve(t *testing.T, g *Gateway, messages ...[]byte) []string {
	t.Helper()
	conn := &fakeConn{inbound: messages}
	if err := g.Serve(context.Background(), conn); err != nil {
		t.Fatalf("serve: %v", err)
	}
	return conn.written
}

func TestServe_SendsConnectedMessageFirst(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g)
	if len(out) != 1 || out[0] != `{"message":"WebSocket connected"}` {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestServe_EchoesNonAudioMessages(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		[]byte(`{"foo":"bar"}`),
		[]byte(`{"type":"ping","n":12345678901234567890}`),
	)
	if len(out) != 3 {
		t.Fatalf("unexpected output count: %v", out)
	}
	if out[1] != `{"echo":{"foo":"bar"}}` {
		t.Fatalf("unexpected echo: %s", out[1])
	}
	if !strings.Contains(out[2], `"n":12345678901234567890`) {
		t.Fatalf("expected number preserved verbatim: %s", out[2])
	}
}

func TestServe_AccumulatesTranscript(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		audioChunk("hello world", "audio/webm"),
		audioChunk("how are you", "audio/ogg"),
	)
	want := []string{
		`{"message":"WebSocket connected"}`,
		`{"type":"transcript","text":"hello world"}`,
		`{"type":"transcript","text":"hello world how are you"}`,
	}
	if strings.Join(out, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected output:\n%s", strings.Join(out, "\n"))
	}
}

func TestServe_SilenceSendsNothing(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		audioChunk("   ", "audio/webm"),
		[]byte(`{"after":"silence"}`),
	)
	if len(out) != 2 || out[1] != `{"echo":{"after":"silence"}}` {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestServe_MalformedBase64ThenValidChunk(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		[]byte(`{"type":"audio_chunk","data":"%%%not-base64%%%","format":"audio/webm"}`),
		audioChunk("recovered", "audio/webm"),
	)
	if len(out) != 3 {
		t.Fatalf("unexpected output: %v", out)
	}
	if !strings.HasPrefix(out[1], `{"type":"error","text":"invalid base64 audio data`) {
		t.Fatalf("expected base64 error, got %s", out[1])
	}
	if out[2] != `{"type":"transcript","text":"recovered"}` {
		t.Fatalf("expected transcript after error, got %s", out[2])
	}
}

func TestServe_TranscodeErrorKeepsConnectionOpen(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		audioChunk("corrupt", "audio/webm"),
		audioChunk("fine", "audio/webm"),
	)
	if len(out) != 3 {
		t.Fatalf("unexpected output: %v", out)
	}
	if !strings.Contains(out[1], `"type":"error"`) || !strings.Contains(out[1], "transcode") {
		t.Fatalf("expected transcode error, got %s", out[1])
	}
	if out[2] != `{"type":"transcript","text":"fine"}` {
		t.Fatalf("unexpected transcript: %s", out[2])
	}
}

func TestServe_InvalidMessages(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{})
	out := serve(t, g,
		[]byte(`not json`),
		[]byte(`null`),
		[]byte(`[1,2,3]`),
		[]byte(`{"type":"audio_chunk"}`),
		[]byte(`{"type":"audio_chunk","data":42}`),
		[]byte(`{"type":"audio_chunk","data":"aGk=","format":7}`),
	)
	if len(out) != 7 {
		t.Fatalf("unexpected output: %v", out)
	}
	for _, line := range out[1:] {
		if !strings.HasPrefix(line, `{"type":"error","text":`) {
			t.Fatalf("expected error envelope, got %s", line)
		}
	}
	if !strings.Contains(out[4], `missing \"data\"`) {
		t.Fatalf("unexpected missing data message: %s", out[4])
	}
}

func TestServe_RecoversFromPanic(t *testing.T) {
	g, _ := newTestGateway(t, &echoEngine{panicOn: "boom"})
	out := serve(t, g,
		audioChunk("boom", "audio/wav"),
		audioChunk("after panic", "audio/wav"),
	)
	if len(out) != 3 {
		t.Fatalf("unexpected output: %v", out)
	}
	if !strings.Contains(out[1], "internal error") {
		t.Fatalf("expected internal error envelope, got %s", out[1])
	}
	if out[2] != `{"type":"transcript","text":"after panic"}` {
		t.Fatalf("unexpected transcript: %s", out[2])
	}
}

func TestServe_ClosesSessionOnReadError(t *testing.T) {
	g, manager := newTestGateway(t, &echoEngine{})
	conn := &fakeConn{readErr: errors.New("connection reset by peer")}

	if err := g.Serve(context.Background(), conn); err == nil {
		t.Fatal("expected read error")
	}
	if manager.ActiveCount() != 0 {
		t.Fatalf("expected session closed, got %d active", manager.ActiveCount())
	}
}

type recordingMetrics struct {
	metrics.Nop
	mu        sync.Mutex
	failed    []string
	processed []string
}

func (r *recordingMetrics) ChunkFailed(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, stage)
}

func (r *recordingMetrics) ChunkProcessed(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, outcome)
}

func TestServe_RecordsRejectedMessages(t *testing.T) {
	rec := &recordingMetrics{}
	cfg := &config.Config{AudioTempDir: t.TempDir(), ChunkTimeout: 2 * time.Second}
	manager := session.NewManager(cfg, &echoEngine{}, copyNormalizer{}, nopPublisher{}, nopWebhook{}, rec)
	g := New(manager, rec)

	serve(t, g,
		[]byte(`not json`),
		[]byte(`{"type":"audio_chunk","data":"%%%not-base64%%%"}`),
		audioChunk("hello", "audio/webm"),
	)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if strings.Join(rec.failed, ",") != "parse,decode" {
		t.Fatalf("unexpected failed stages: %v", rec.failed)
	}
	want := []string{metrics.OutcomeError, metrics.OutcomeError, metrics.OutcomeTranscript}
	if strings.Join(rec.processed, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected outcomes: %v", rec.processed)
	}
}
