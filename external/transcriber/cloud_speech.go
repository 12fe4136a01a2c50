package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	autoDetectLanguage    = "auto"
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

type CloudSpeechEngine struct {
	client     *speech.Client
	recognizer string
	model      string
}

func NewCloudSpeechEngine(ctx context.Context, cfg CloudSpeechConfig) (*CloudSpeechEngine, error) {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	model := strings.TrimSpace(cfg.Model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	slog.Info("cloud speech engine initialized", "location", location, "model", model)

	return &CloudSpeechEngine{
		client:     client,
		recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", cfg.ProjectID, location),
		model:      model,
	}, nil
}

func (e *CloudSpeechEngine) Transcribe(ctx context.Context, wavPath string, _ transcriber.Options) ([]transcriber.Segment, error) {
	content, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: e.recognizer,
		Config: &speechpb.RecognitionConfig{
			Model:         e.model,
			LanguageCodes: []string{autoDetectLanguage},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: content},
	})
	if err != nil {
		return nil, describeRecognizeError(err)
	}
	return segmentsFromResults(resp.GetResults()), nil
}

func (e *CloudSpeechEngine) Close() error {
	return e.client.Close()
}

func segmentsFromResults(results []*speechpb.SpeechRecognitionResult) []transcriber.Segment {
	segments := make([]transcriber.Segment, 0, len(results))
	var prevEnd time.Duration
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		end := prevEnd
		if r.GetResultEndOffset() != nil {
			end = r.GetResultEndOffset().AsDuration()
		}
		segments = append(segments, transcriber.Segment{
			Start: prevEnd,
			End:   end,
			Text:  alts[0].GetTranscript(),
		})
		prevEnd = end
	}
	return segments
}

func describeRecognizeError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("cloud speech recognize: %w", err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("cloud speech recognize interrupted: %w", err)
	case codes.InvalidArgument:
		return fmt.Errorf("cloud speech rejected audio: %s", st.Message())
	default:
		return fmt.Errorf("cloud speech recognize failed (%s): %s", st.Code(), st.Message())
	}
}
