package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/kikitori/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env             string   `env:"ENV" envDefault:"production"`
	HTTPAddr        string   `env:"HTTP_ADDR" envDefault:":8000"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	MaxMessageBytes int64    `env:"MAX_MESSAGE_BYTES" envDefault:"16777216"`

	TranscriptionEngine        string `env:"TRANSCRIPTION_ENGINE" envDefault:"whisper"`
	WhisperModelPath           string `env:"WHISPER_MODEL_PATH"`
	WhisperThreads             int    `env:"WHISPER_THREADS" envDefault:"0"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`

	FFmpegPath   string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	AudioTempDir string        `env:"AUDIO_TEMP_DIR"`
	ChunkTimeout time.Duration `env:"CHUNK_TIMEOUT" envDefault:"60s"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"interview.transcript"`

	TranscriptWebhookURL string `env:"TRANSCRIPT_WEBHOOK_URL"`

	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenAIQuestionModel string `env:"OPENAI_QUESTION_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIResumeModel   string `env:"OPENAI_RESUME_MODEL" envDefault:"gpt-4.1-mini"`
}

func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
	return parse()
}

func parse() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		AllowedOrigins:             raw.AllowedOrigins,
		MaxMessageBytes:            raw.MaxMessageBytes,
		TranscriptionEngine:        raw.TranscriptionEngine,
		WhisperModelPath:           raw.WhisperModelPath,
		WhisperThreads:             raw.WhisperThreads,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		FFmpegPath:                 raw.FFmpegPath,
		AudioTempDir:               raw.AudioTempDir,
		ChunkTimeout:               raw.ChunkTimeout,
		KafkaEnabled:               raw.KafkaEnabled,
		KafkaBrokers:               raw.KafkaBrokers,
		KafkaTopic:                 raw.KafkaTopic,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIQuestionModel:        raw.OpenAIQuestionModel,
		OpenAIResumeModel:          raw.OpenAIResumeModel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
