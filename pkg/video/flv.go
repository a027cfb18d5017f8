package video

import (
	"bytes"
	"fmt"
	"os"

	flv "github.com/yutopp/go-flv"
	flvtag "github.com/yutopp/go-flv/tag"
)

// FLVWriter muxes hardware-encoded H.264 buffers into an FLV container
// without re-encoding. Chosen when the capture source exposes an encoded
// buffer on its frames.
type FLVWriter struct {
	tb       timebase
	file     *os.File
	enc      *flv.Encoder
	released bool
}

// NewFLVWriter creates an FLV container at path. startTime anchors the
// container clock.
func NewFLVWriter(path string, startTime float64) (*FLVWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create video container: %w", err)
	}

	enc, err := flv.NewEncoder(file, flv.FlagsVideo)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create flv encoder: %w", err)
	}

	return &FLVWriter{
		tb:   timebase{start: startTime},
		file: file,
		enc:  enc,
	}, nil
}

// WriteVideoFrame muxes the frame's H.264 buffer as one video tag.
func (w *FLVWriter) WriteVideoFrame(frame Frame) error {
	if len(frame.H264Buffer) == 0 {
		return fmt.Errorf("frame carries no h264 buffer")
	}
	if err := w.tb.admit(frame.Timestamp); err != nil {
		return err
	}

	frameType := flvtag.FrameTypeInterFrame
	if frame.Keyframe {
		frameType = flvtag.FrameTypeKeyFrame
	}

	err := w.enc.Encode(&flvtag.FlvTag{
		TagType:   flvtag.TagTypeVideo,
		Timestamp: w.tb.millis(frame.Timestamp),
		Data: &flvtag.VideoData{
			FrameType:       frameType,
			CodecID:         flvtag.CodecIDAVC,
			AVCPacketType:   flvtag.AVCPacketTypeNALU,
			CompositionTime: 0,
			Data:            bytes.NewReader(frame.H264Buffer),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode flv tag: %w", err)
	}
	return nil
}

// Release finalizes the container.
func (w *FLVWriter) Release() error {
	if w.released {
		return nil
	}
	w.released = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to sync video container: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close video container: %w", err)
	}
	if w.tb.count == 0 {
		return ErrNoFramesWritten
	}
	return nil
}
