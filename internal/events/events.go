package events

import (
	"context"
	"time"
)

type TranscriptEvent struct {
	SessionID  string    `json:"session_id"`
	ChunkSeq   int       `json:"chunk_seq"`
	Text       string    `json:"text"`
	Transcript string    `json:"transcript"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	PublishTranscript(ctx context.Context, event TranscriptEvent) error
	Close() error
}
