package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/session"
)

var (
	errNotAnObject     = errors.New("message must be a JSON object")
	errMissingData     = errors.New(`audio_chunk is missing "data"`)
	errDataNotString   = errors.New(`audio_chunk "data" must be a base64 string`)
	errFormatNotString = errors.New(`audio_chunk "format" must be a string`)
)

// Conn is a message-oriented connection. ReadMessage returns io.EOF once the
// peer has closed normally.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
}

type Gateway struct {
	sessions *session.Manager
	metrics  metrics.Recorder
}

func New(sessions *session.Manager, rec metrics.Recorder) *Gateway {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Gateway{sessions: sessions, metrics: rec}
}

func (g *Gateway) Serve(ctx context.Context, conn Conn) error {
	sess := g.sessions.Open()
	reason := "client disconnected"
	defer func() {
		g.sessions.Close(sess.ID(), reason)
	}()

	if err := conn.WriteJSON(connectedEnvelope{Message: messageConnected}); err != nil {
		reason = "handshake write failed"
		return fmt.Errorf("send connected message: %w", err)
	}

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			reason = "read failed"
			return fmt.Errorf("read message: %w", err)
		}

		reply := g.handleMessage(ctx, sess, raw)
		if reply == nil {
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			reason = "write failed"
			return fmt.Errorf("write message: %w", err)
		}
	}
}

func (g *Gateway) handleMessage(ctx context.Context, sess *session.Session, raw []byte) (reply any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling message", "session_id", sess.ID(), "panic", r)
			reply = errorEnvelope(fmt.Errorf("internal error: %v", r))
		}
	}()

	msg, err := decodeObject(raw)
	if err != nil {
		g.recordRejected("parse")
		return errorEnvelope(err)
	}
	if msg["type"] != messageTypeAudioChunk {
		return echoEnvelope{Echo: msg}
	}

	data, hint, err := audioChunkFields(msg)
	if err != nil {
		g.recordRejected("decode")
		return errorEnvelope(err)
	}

	update, err := sess.ProcessChunk(ctx, data, hint)
	if err != nil {
		return errorEnvelope(err)
	}
	if update == nil {
		return nil
	}
	return transcriptEnvelope(update.Text)
}

func (g *Gateway) recordRejected(stage string) {
	g.metrics.ChunkFailed(stage)
	g.metrics.ChunkProcessed(metrics.OutcomeError)
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var msg map[string]any
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("invalid JSON message: %w", err)
	}
	if msg == nil {
		return nil, errNotAnObject
	}
	return msg, nil
}

func audioChunkFields(msg map[string]any) ([]byte, string, error) {
	rawData, ok := msg["data"]
	if !ok || rawData == nil {
		return nil, "", errMissingData
	}
	encoded, ok := rawData.(string)
	if !ok {
		return nil, "", errDataNotString
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 audio data: %w", err)
	}

	var hint string
	if rawFormat, ok := msg["format"]; ok && rawFormat != nil {
		hint, ok = rawFormat.(string)
		if !ok {
			return nil, "", errFormatNotString
		}
	}
	return data, hint, nil
}
