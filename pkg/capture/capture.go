package capture

import (
	"github.com/gazekit/gazekit/pkg/video"
)

// Capabilities describes what a capture source can do. The recorder queries
// it once at session start to pick a video writer strategy.
type Capabilities struct {
	// SupportsJPEG is true when frames carry a pre-compressed JPEG buffer
	// that can be written without re-encoding.
	SupportsJPEG bool
	// HasHWBuffer is true when frames carry a hardware-encoded H.264 buffer.
	HasHWBuffer bool
	// RemoteClock is true for network sources whose frame timestamps come
	// from a remote clock and must be validated against the local
	// synchronized clock before recording.
	RemoteClock bool

	FrameWidth  int
	FrameHeight int
	FrameRate   float64
}

// Source is the capture collaborator the recorder talks to. Implementations
// live outside this module; the recorder only depends on this interface.
type Source interface {
	Capabilities() Capabilities
	// RecentFrame returns the most recently captured frame, or false when no
	// frame has arrived yet.
	RecentFrame() (video.Frame, bool)
	Intrinsics() Intrinsics
}
