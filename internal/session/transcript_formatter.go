package session

import (
	"fmt"
	"time"

	"github.com/foxseedlab/kikitori/internal/webhook"
)

func buildTranscriptWebhookPayload(snapshot closedSession) webhook.TranscriptWebhookPayload {
	durationSeconds := int64(snapshot.endedAt.Sub(snapshot.startedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	return webhook.TranscriptWebhookPayload{
		SchemaVersion:      webhook.TranscriptWebhookSchemaVersion,
		SessionID:          snapshot.id,
		StartAt:            snapshot.startedAt.UTC().Format(time.RFC3339),
		EndAt:              snapshot.endedAt.UTC().Format(time.RFC3339),
		DurationSeconds:    durationSeconds,
		ChunkCount:         snapshot.chunkCount,
		SegmentCount:       len(snapshot.segments),
		TranscriptSegments: buildTranscriptWebhookSegments(snapshot.segments, snapshot.startedAt),
		Transcript:         snapshot.transcript,
	}
}

func buildTranscriptWebhookSegments(segments []acceptedSegment, startedAt time.Time) []webhook.TranscriptWebhookSegment {
	out := make([]webhook.TranscriptWebhookSegment, 0, len(segments))
	for i, seg := range segments {
		elapsed := seg.receivedAt.Sub(startedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		out = append(out, webhook.TranscriptWebhookSegment{
			Index:      i,
			ChunkSeq:   seg.chunkSeq,
			Elapsed:    formatElapsedHMS(elapsed),
			ReceivedAt: seg.receivedAt.UTC().Format(time.RFC3339),
			Transcript: seg.text,
		})
	}
	return out
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
