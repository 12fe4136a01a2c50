package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/foxseedlab/kikitori/internal/audio"
)

type workingFiles struct {
	raw        string
	normalized string
}

func createWorkingFiles(dir string, format audio.Format, data []byte) (*workingFiles, error) {
	f, err := os.CreateTemp(dir, "chunk-*"+format.Ext())
	if err != nil {
		return nil, fmt.Errorf("create working file: %w", err)
	}
	files := &workingFiles{raw: f.Name()}

	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		files.release()
		return nil, fmt.Errorf("write working file: %w", err)
	}
	return files, nil
}

func (w *workingFiles) normalizedPath() string {
	w.normalized = w.raw + ".wav"
	return w.normalized
}

func (w *workingFiles) release() {
	removeQuietly(w.raw)
	if w.normalized != "" && w.normalized != w.raw {
		removeQuietly(w.normalized)
	}
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("failed to remove working file", "path", path, "error", err)
	}
}
