package gateway

const (
	messageTypeAudioChunk = "audio_chunk"
	messageTypeTranscript = "transcript"
	messageTypeError      = "error"

	messageConnected = "WebSocket connected"
)

type connectedEnvelope struct {
	Message string `json:"message"`
}

type echoEnvelope struct {
	Echo map[string]any `json:"echo"`
}

type textEnvelope struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func transcriptEnvelope(text string) textEnvelope {
	return textEnvelope{Type: messageTypeTranscript, Text: text}
}

func errorEnvelope(err error) textEnvelope {
	return textEnvelope{Type: messageTypeError, Text: err.Error()}
}
