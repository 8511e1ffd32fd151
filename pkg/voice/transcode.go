package voice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Transcoder converts uploaded recordings to 16 kHz mono WAV with ffmpeg.
type Transcoder struct {
	Bin string
}

// NewTranscoder returns nil when ffmpeg cannot be found; callers then send
// the original audio through.
func NewTranscoder(bin string) *Transcoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil
	}
	return &Transcoder{Bin: path}
}

func (t *Transcoder) ToWAV(ctx context.Context, src []byte, ext string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "transcode-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if ext == "" {
		ext = ".webm"
	}
	in := filepath.Join(dir, "in"+ext)
	out := filepath.Join(dir, "out.wav")
	if err := os.WriteFile(in, src, 0o600); err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Bin, "-y", "-i", in, "-ar", "16000", "-ac", "1", out)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return os.ReadFile(out)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
