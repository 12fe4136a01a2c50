package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/kikitori/internal/interview"
	"github.com/foxseedlab/kikitori/internal/session"
)

const (
	maxResumeUploadBytes = 10 << 20
	maxQuestionBodyBytes = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type resumeUploadResponse struct {
	Message string               `json:"message"`
	Data    interview.ResumeData `json:"data"`
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

type readinessResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readyz(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, readinessResponse{Status: "ready", ActiveSessions: sessions.ActiveCount()})
	}
}

func uploadResume(extractor interview.ResumeExtractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxResumeUploadBytes)
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No resume uploaded")
			return
		}
		defer file.Close()

		data, err := extractor.ExtractResume(r.Context(), file, header.Size)
		if err != nil {
			if errors.Is(err, interview.ErrNotConfigured) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			slog.Error("resume extraction failed", "error", err, "filename", header.Filename, "size_bytes", header.Size)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resumeUploadResponse{Message: "Resume uploaded & parsed!", Data: data})
	}
}

func generateQuestions(generator interview.QuestionGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req interview.QuestionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		questions, err := generator.GenerateQuestions(r.Context(), req)
		if err != nil {
			if errors.Is(err, interview.ErrNotConfigured) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			slog.Error("question generation failed", "error", err, "job_role", req.JobRole)
			writeError(w, http.StatusBadGateway, "question generation failed")
			return
		}
		if questions == nil {
			questions = []string{}
		}
		writeJSON(w, http.StatusOK, questionsResponse{Questions: questions})
	}
}
