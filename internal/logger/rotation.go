package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rotatedSuffixFormat names rotated files <base>.<timestamp>, which keeps
// them adjacent to the live log and matched by the cleanup glob.
const rotatedSuffixFormat = "20060102T150405"

// RotatingWriter appends to a single log file and renames it aside once it
// grows past the size limit. Rotated files older than the retention window
// are deleted; compression of rotated files is optional.
type RotatingWriter struct {
	path     string
	limit    int64 // bytes
	maxAge   int   // days, <=0 disables retention cleanup
	compress bool

	file *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating parent directories
// as needed. maxSizeMB bounds the live file size before rotation.
func NewRotatingWriter(path string, maxSizeMB int, maxAge int, compress bool) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, size, err := openAppend(path)
	if err != nil {
		return nil, err
	}

	w := &RotatingWriter{
		path:     path,
		limit:    int64(maxSizeMB) * 1024 * 1024,
		maxAge:   maxAge,
		compress: compress,
		file:     file,
		size:     size,
	}
	go w.cleanup()

	return w, nil
}

func openAppend(path string) (*os.File, int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat log file: %w", err)
	}
	return file, info.Size(), nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	if w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// rotate renames the live file aside and reopens an empty one under the
// original path.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	aside := w.path + "." + time.Now().Format(rotatedSuffixFormat)
	if err := os.Rename(w.path, aside); err != nil {
		return err
	}
	if w.compress {
		go w.compressFile(aside)
	}

	file, size, err := openAppend(w.path)
	if err != nil {
		return err
	}
	w.file = file
	w.size = size
	return nil
}

func (w *RotatingWriter) compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

// cleanup deletes rotated files whose modification time falls outside the
// retention window. The live file is never touched because the glob only
// matches suffixed names.
func (w *RotatingWriter) cleanup() {
	if w.maxAge <= 0 {
		return
	}

	rotated, err := filepath.Glob(w.path + ".*")
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -w.maxAge)
	for _, path := range rotated {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		os.Remove(path)
		if !strings.HasSuffix(path, ".gz") {
			os.Remove(path + ".gz")
		}
	}
}
