package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/gateway"
	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const readHeaderTimeout = 10 * time.Second

type Dependencies struct {
	Sessions       *session.Manager
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	Questions      interview.QuestionGenerator
	Resumes        interview.ResumeExtractor
}

type Server struct {
	httpServer *http.Server
	sockets    *socketTracker
}

func New(cfg *config.Config, deps Dependencies) *Server {
	sockets := newSocketTracker()
	s := &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           newRouter(cfg, deps, sockets),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		sockets: sockets,
	}
	s.httpServer.RegisterOnShutdown(func() {
		sockets.closeAll("server shutdown")
	})
	return s
}

func newRouter(cfg *config.Config, deps Dependencies, sockets *socketTracker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	ws := &interviewSocket{
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(cfg.AllowedOrigins),
		},
		gateway:         gateway.New(deps.Sessions, deps.Metrics),
		sockets:         sockets,
		maxMessageBytes: cfg.MaxMessageBytes,
	}
	r.Method(http.MethodGet, "/ws/interview", ws)
	r.Method(http.MethodGet, "/ws/interview/", ws)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Sessions))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Post("/resume/upload/", uploadResume(deps.Resumes))
	r.Post("/interview/questions/", generateQuestions(deps.Questions))
	return r
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) ListenAndServe() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
