package config

import (
	"fmt"
	"time"
)

const (
	EngineWhisper = "whisper"
	EngineGoogle  = "google"
)

type Config struct {
	Env             string
	HTTPAddr        string
	AllowedOrigins  []string
	MaxMessageBytes int64

	TranscriptionEngine        string
	WhisperModelPath           string
	WhisperThreads             int
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	FFmpegPath   string
	AudioTempDir string
	ChunkTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	TranscriptWebhookURL string

	OpenAIAPIKey        string
	OpenAIQuestionModel string
	OpenAIResumeModel   string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.TranscriptionEngine {
	case EngineWhisper:
		if c.WhisperModelPath == "" {
			return fmt.Errorf("WHISPER_MODEL_PATH is required when TRANSCRIPTION_ENGINE=%s", EngineWhisper)
		}
	case EngineGoogle:
		if c.GoogleCloudProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when TRANSCRIPTION_ENGINE=%s", EngineGoogle)
		}
		if c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when TRANSCRIPTION_ENGINE=%s", EngineGoogle)
		}
	default:
		return fmt.Errorf("TRANSCRIPTION_ENGINE must be %q or %q, got %q", EngineWhisper, EngineGoogle, c.TranscriptionEngine)
	}
	if c.WhisperThreads < 0 {
		return fmt.Errorf("WHISPER_THREADS must not be negative, got %d", c.WhisperThreads)
	}
	if c.ChunkTimeout <= 0 {
		return fmt.Errorf("CHUNK_TIMEOUT must be positive, got %s", c.ChunkTimeout)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("MAX_MESSAGE_BYTES must be positive, got %d", c.MaxMessageBytes)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "TRANSCRIPTION_ENGINE", value: c.TranscriptionEngine},
		{name: "FFMPEG_PATH", value: c.FFmpegPath},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) CollaboratorsEnabled() bool {
	return c.OpenAIAPIKey != ""
}
