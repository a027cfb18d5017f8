package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is one timestamped datum of a named event stream. Timestamp is in
// the synchronized clock domain shared with video frames.
type Record struct {
	Topic     string         `json:"topic"`
	Timestamp float64        `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer serializes records of one event stream to an append-only JSONL file
// inside the session directory. Within one stream, append order equals write
// order. Close flushes, fsyncs and finalizes; it is safe to call at most
// once.
type Writer struct {
	name   string
	path   string
	file   *os.File
	count  int
	closed bool
}

// NewWriter opens the backing file for the named stream under dir.
func NewWriter(dir, name string) (*Writer, error) {
	path := filepath.Join(dir, name+".jsonl")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream file: %w", err)
	}

	return &Writer{
		name: name,
		path: path,
		file: file,
	}, nil
}

// Name returns the stream name.
func (w *Writer) Name() string { return w.name }

// Path returns the backing file path.
func (w *Writer) Path() string { return w.path }

// Count returns the number of records written so far.
func (w *Writer) Count() int { return w.count }

// Append serializes one record to the backing file.
func (w *Writer) Append(rec Record) error {
	if w.closed {
		return fmt.Errorf("stream %q: writer is closed", w.name)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = float64(time.Now().UnixNano()) / 1e9
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("stream %q: failed to marshal record: %w", w.name, err)
	}

	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("stream %q: failed to write record: %w", w.name, err)
	}

	w.count++
	return nil
}

// Extend appends records in order, stopping at the first failure.
func (w *Writer) Extend(recs []Record) error {
	for _, rec := range recs {
		if err := w.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close syncs and closes the backing file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("stream %q: failed to sync: %w", w.name, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("stream %q: failed to close: %w", w.name, err)
	}
	return nil
}

// Read loads every record of the named stream from dir, in write order.
// Intended for tooling and tests; the recorder itself never reads streams
// back.
func Read(dir, name string) ([]Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to read stream file: %w", err)
	}

	var recs []Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("stream %q: corrupt record: %w", name, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
