package video

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// mjpegContainer is a JPEG sequence container: concatenated JPEG frames in
// one file plus a JSONL index mapping synchronized timestamps to byte ranges.
type mjpegContainer struct {
	file   *os.File
	index  *os.File
	offset int64
}

func newMJPEGContainer(path string) (*mjpegContainer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create video container: %w", err)
	}

	index, err := os.OpenFile(path+".index.jsonl", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create frame index: %w", err)
	}

	return &mjpegContainer{file: file, index: index}, nil
}

type frameIndexEntry struct {
	Timestamp float64 `json:"timestamp"`
	Offset    int64   `json:"offset"`
	Size      int     `json:"size"`
}

func (c *mjpegContainer) write(ts float64, jpegData []byte) error {
	if _, err := c.file.Write(jpegData); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	entry, err := json.Marshal(frameIndexEntry{
		Timestamp: ts,
		Offset:    c.offset,
		Size:      len(jpegData),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal index entry: %w", err)
	}
	if _, err := c.index.Write(append(entry, '\n')); err != nil {
		return fmt.Errorf("failed to write index entry: %w", err)
	}

	c.offset += int64(len(jpegData))
	return nil
}

func (c *mjpegContainer) close() error {
	if err := c.file.Sync(); err != nil {
		c.file.Close()
		c.index.Close()
		return fmt.Errorf("failed to sync video container: %w", err)
	}
	if err := c.file.Close(); err != nil {
		c.index.Close()
		return fmt.Errorf("failed to close video container: %w", err)
	}
	if err := c.index.Close(); err != nil {
		return fmt.Errorf("failed to close frame index: %w", err)
	}
	return nil
}

// JPEGWriter passes pre-compressed JPEG buffers straight into a JPEG
// sequence container. This is the low-CPU path for capture sources with
// JPEG passthrough support.
type JPEGWriter struct {
	tb        timebase
	container *mjpegContainer
	released  bool
}

// NewJPEGWriter creates a passthrough writer at path. startTime anchors the
// container clock.
func NewJPEGWriter(path string, startTime float64) (*JPEGWriter, error) {
	c, err := newMJPEGContainer(path)
	if err != nil {
		return nil, err
	}
	return &JPEGWriter{
		tb:        timebase{start: startTime},
		container: c,
	}, nil
}

// WriteVideoFrame appends the frame's JPEG buffer to the container.
func (w *JPEGWriter) WriteVideoFrame(frame Frame) error {
	if len(frame.JPEGBuffer) == 0 {
		return fmt.Errorf("frame carries no jpeg buffer")
	}
	if err := w.tb.admit(frame.Timestamp); err != nil {
		return err
	}
	return w.container.write(frame.Timestamp, frame.JPEGBuffer)
}

// Release finalizes the container.
func (w *JPEGWriter) Release() error {
	if w.released {
		return nil
	}
	w.released = true

	err := w.container.close()
	if w.tb.count == 0 {
		return ErrNoFramesWritten
	}
	return err
}

// MPEGWriter is the generic fallback: it compresses raw pixel frames with
// the stock JPEG encoder and writes the same sequence container as
// JPEGWriter.
type MPEGWriter struct {
	tb        timebase
	container *mjpegContainer
	quality   int
	released  bool
}

// NewMPEGWriter creates a generic writer at path. startTime anchors the
// container clock.
func NewMPEGWriter(path string, startTime float64) (*MPEGWriter, error) {
	c, err := newMJPEGContainer(path)
	if err != nil {
		return nil, err
	}
	return &MPEGWriter{
		tb:        timebase{start: startTime},
		container: c,
		quality:   90,
	}, nil
}

// WriteVideoFrame compresses the frame's pixel data and appends it.
func (w *MPEGWriter) WriteVideoFrame(frame Frame) error {
	if len(frame.Pixels) == 0 || frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("frame carries no pixel data")
	}
	if len(frame.Pixels) < frame.Width*frame.Height*4 {
		return fmt.Errorf("frame pixel data is truncated: %d bytes for %dx%d", len(frame.Pixels), frame.Width, frame.Height)
	}
	if err := w.tb.admit(frame.Timestamp); err != nil {
		return err
	}

	img := &image.NRGBA{
		Pix:    frame.Pixels,
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	return w.container.write(frame.Timestamp, buf.Bytes())
}

// Release finalizes the container.
func (w *MPEGWriter) Release() error {
	if w.released {
		return nil
	}
	w.released = true

	err := w.container.close()
	if w.tb.count == 0 {
		return ErrNoFramesWritten
	}
	return err
}
