package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestCommand_Args(t *testing.T) {
	n := NewFFmpegNormalizer("/usr/local/bin/ffmpeg")
	cmd := n.command(context.Background(), "/tmp/chunk.webm", "/tmp/chunk.webm.wav")

	if cmd.Args[0] != "/usr/local/bin/ffmpeg" {
		t.Fatalf("unexpected binary: %s", cmd.Args[0])
	}
	args := cmd.Args[1:]
	idx := slices.Index(args, "-i")
	if idx < 0 || args[idx+1] != "/tmp/chunk.webm" {
		t.Fatalf("input not found in args: %v", args)
	}
	for _, pair := range [][2]string{{"-ac", "1"}, {"-ar", "16000"}} {
		i := slices.Index(args, pair[0])
		if i < 0 || args[i+1] != pair[1] {
			t.Fatalf("expected %s %s in args: %v", pair[0], pair[1], args)
		}
	}
	if !slices.Contains(args, "/tmp/chunk.webm.wav") {
		t.Fatalf("output not found in args: %v", args)
	}
	if !slices.Contains(args, "-y") {
		t.Fatalf("expected overwrite flag in args: %v", args)
	}
}

func TestNewFFmpegNormalizer_DefaultBinary(t *testing.T) {
	if n := NewFFmpegNormalizer(""); n.binary != "ffmpeg" {
		t.Fatalf("unexpected binary: %s", n.binary)
	}
}

func TestLastLine(t *testing.T) {
	got := lastLine("first\nsecond\n/tmp/x.webm: Invalid data found when processing input\n")
	if got != "/tmp/x.webm: Invalid data found when processing input" {
		t.Fatalf("unexpected last line: %q", got)
	}
}

func requireFFmpeg(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	return path
}

func TestNormalize_ConvertsToMono16k(t *testing.T) {
	bin := requireFFmpeg(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "stereo.wav")
	dst := filepath.Join(dir, "stereo.wav.out.wav")

	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           make([]int, 44100*2),
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	_ = f.Close()

	if err := NewFFmpegNormalizer(bin).Normalize(context.Background(), src, dst); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out, err := os.Open(dst)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() {
		_ = out.Close()
	}()
	dec := wav.NewDecoder(out)
	dec.ReadInfo()
	if dec.Err() != nil {
		t.Fatalf("read output header: %v", dec.Err())
	}
	if dec.SampleRate != 16000 || dec.NumChans != 1 {
		t.Fatalf("unexpected output layout: rate=%d channels=%d", dec.SampleRate, dec.NumChans)
	}
}

func TestNormalize_InvalidInput(t *testing.T) {
	bin := requireFFmpeg(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.webm")
	if err := os.WriteFile(src, []byte("not audio at all"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	err := NewFFmpegNormalizer(bin).Normalize(context.Background(), src, src+".wav")
	if err == nil {
		t.Fatal("expected error for undecodable input")
	}
}

func TestNormalize_ContextCanceled(t *testing.T) {
	bin := requireFFmpeg(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.webm")
	if err := os.WriteFile(src, []byte("x"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if err := NewFFmpegNormalizer(bin).Normalize(ctx, src, src+".wav"); err == nil {
		t.Fatal("expected error for expired context")
	}
}
