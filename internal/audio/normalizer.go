package audio

import "context"

const (
	NormalizedSampleRate = 16000
	NormalizedChannels   = 1

	normalizedBitDepth = 16
	wavFormatPCM       = 1
)

type Normalizer interface {
	Normalize(ctx context.Context, src, dst string) error
}
