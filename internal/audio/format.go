package audio

import (
	"bytes"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
)

type Format string

const (
	FormatWebM    Format = "webm"
	FormatOGG     Format = "ogg"
	FormatWAV     Format = "wav"
	FormatUnknown Format = ""
)

func ParseFormat(hint string) Format {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "wav"):
		return FormatWAV
	case strings.Contains(h, "ogg"):
		return FormatOGG
	default:
		return FormatWebM
	}
}

func (f Format) Ext() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + string(f)
}

func (f Format) NeedsTranscode() bool {
	return f != FormatWAV
}

func NeedsNormalizing(f Format, data []byte) bool {
	if f.NeedsTranscode() {
		return true
	}
	return !isNormalizedWAV(data)
}

func isNormalizedWAV(data []byte) bool {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if dec.Err() != nil {
		return false
	}
	return dec.WavAudioFormat == wavFormatPCM &&
		dec.NumChans == NormalizedChannels &&
		dec.SampleRate == NormalizedSampleRate &&
		dec.BitDepth == normalizedBitDepth
}

var sniffedFormats = []struct {
	mime   string
	format Format
}{
	{mime: "audio/wav", format: FormatWAV},
	{mime: "audio/ogg", format: FormatOGG},
	{mime: "application/ogg", format: FormatOGG},
	{mime: "video/webm", format: FormatWebM},
}

func Sniff(data []byte) Format {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, sf := range sniffedFormats {
			if m.Is(sf.mime) {
				return sf.format
			}
		}
	}
	return FormatUnknown
}

func Resolve(hint string, data []byte) (declared, resolved Format) {
	declared = ParseFormat(hint)
	sniffed := Sniff(data)
	if sniffed == FormatUnknown {
		return declared, declared
	}
	return declared, sniffed
}
