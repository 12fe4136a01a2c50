package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
	"github.com/google/uuid"
)

const webhookDeliveryTimeout = 30 * time.Second

type Manager struct {
	pipeline *pipeline
	webhook  webhook.Sender
	metrics  metrics.Recorder

	mu       sync.Mutex
	sessions map[string]*Session

	finalizers sync.WaitGroup
}

func NewManager(cfg *config.Config, engine transcriber.Engine, normalizer audio.Normalizer, publisher events.Publisher, wh webhook.Sender, rec metrics.Recorder) *Manager {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Manager{
		pipeline: &pipeline{
			engine:       engine,
			normalizer:   normalizer,
			publisher:    publisher,
			metrics:      rec,
			tempDir:      cfg.AudioTempDir,
			chunkTimeout: cfg.ChunkTimeout,
			now:          time.Now,
		},
		webhook:  wh,
		metrics:  rec,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Open() *Session {
	s := newSession(uuid.NewString(), m.pipeline)

	m.mu.Lock()
	m.sessions[s.id] = s
	active := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SessionOpened()
	slog.Info("session opened", "session_id", s.id, "active_sessions", active)
	return s
}

func (m *Manager) Close(id, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	snapshot, first := s.close()
	if !first {
		return
	}
	lifetime := snapshot.endedAt.Sub(snapshot.startedAt)
	m.metrics.SessionClosed(lifetime)
	slog.Info("session closed", "session_id", id, "reason", reason, "chunks", snapshot.chunkCount, "transcript_chars", len(snapshot.transcript), "lifetime", lifetime.String())

	m.finalizers.Add(1)
	go func() {
		defer m.finalizers.Done()
		m.finalizeSession(snapshot)
	}()
}

func (m *Manager) finalizeSession(snapshot closedSession) {
	if snapshot.transcript == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), webhookDeliveryTimeout)
	defer cancel()
	if err := m.webhook.SendTranscript(ctx, buildTranscriptWebhookPayload(snapshot)); err != nil {
		slog.Error("failed to send webhook transcript", "error", err, "session_id", snapshot.id)
	}
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	// Close waits for an in-flight chunk, so it must not block past ctx.
	var closers sync.WaitGroup
	for _, id := range ids {
		closers.Add(1)
		go func(id string) {
			defer closers.Done()
			m.Close(id, "server shutdown")
		}(id)
	}

	done := make(chan struct{})
	go func() {
		closers.Wait()
		m.finalizers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
