package transcriber

import (
	"context"
	"regexp"
	"strings"
)

type WhisperConfig struct {
	ModelPath string
	Threads   int
}

// whisper.cpp emits bracketed tags such as [BLANK_AUDIO] or [MUSIC] for
// stretches without speech.
var nonSpeechMarker = regexp.MustCompile(`\[[A-Z_ ]+\]|\([a-z ]+\)`)

func stripNonSpeechMarkers(text string) string {
	return strings.TrimSpace(nonSpeechMarker.ReplaceAllString(text, ""))
}

// English-only models reject any language setting, including auto.
func whisperLanguage(multilingual bool) string {
	if !multilingual {
		return ""
	}
	return autoDetectLanguage
}

func continueWhileActive(ctx context.Context) func() bool {
	return func() bool {
		return ctx.Err() == nil
	}
}
