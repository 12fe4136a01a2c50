package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/foxseedlab/kikitori/internal/audio"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type FFmpegNormalizer struct {
	binary string
}

func NewFFmpegNormalizer(binary string) *FFmpegNormalizer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegNormalizer{binary: binary}
}

func (n *FFmpegNormalizer) Normalize(ctx context.Context, src, dst string) error {
	var stderr bytes.Buffer
	cmd := n.command(ctx, src, dst)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg exited with status %d: %s", exitErr.ExitCode(), lastLine(stderr.String()))
		}
		return fmt.Errorf("run ffmpeg: %w", err)
	}
	return nil
}

func (n *FFmpegNormalizer) command(ctx context.Context, src, dst string) *exec.Cmd {
	compiled := ffmpeg.Input(src).
		Output(dst, ffmpeg.KwArgs{
			"ac": audio.NormalizedChannels,
			"ar": audio.NormalizedSampleRate,
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		Compile()
	return exec.CommandContext(ctx, n.binary, compiled.Args[1:]...)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
