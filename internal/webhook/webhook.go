package webhook

import "context"

const TranscriptWebhookSchemaVersion = "1"

type TranscriptWebhookPayload struct {
	SchemaVersion      string                     `json:"schema_version"`
	SessionID          string                     `json:"session_id"`
	StartAt            string                     `json:"start_at"`
	EndAt              string                     `json:"end_at"`
	DurationSeconds    int64                      `json:"duration_seconds"`
	ChunkCount         int                        `json:"chunk_count"`
	SegmentCount       int                        `json:"segment_count"`
	TranscriptSegments []TranscriptWebhookSegment `json:"transcript_segments"`
	Transcript         string                     `json:"transcript"`
}

type TranscriptWebhookSegment struct {
	Index      int    `json:"index"`
	ChunkSeq   int    `json:"chunk_seq"`
	Elapsed    string `json:"elapsed"`
	ReceivedAt string `json:"received_at"`
	Transcript string `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
