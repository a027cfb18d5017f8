package recorder

import (
	"strings"

	"github.com/gazekit/gazekit/pkg/video"
)

// Reserved event keys. Frame data and tick bookkeeping never go through the
// generic stream fanout.
const (
	KeyDT         = "dt"
	KeyFrame      = "frame"
	KeyDepthFrame = "depth_frame"
)

// Events carries one tick's worth of capture output. Keys that are not
// reserved map to []stream.Record batches destined for the stream writer of
// the same name.
type Events map[string]any

// Frame returns the world video frame for this tick, if any.
func (e Events) Frame() (video.Frame, bool) {
	f, ok := e[KeyFrame].(video.Frame)
	return f, ok
}

// reservedKey reports whether a key is excluded from the stream fanout.
// Anything with the frame prefix is raw image data, not serializable records.
func reservedKey(key string) bool {
	if key == KeyDT || key == KeyDepthFrame {
		return true
	}
	return strings.HasPrefix(key, KeyFrame)
}
