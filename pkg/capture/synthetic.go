package capture

import (
	"math"
	"time"

	"github.com/gazekit/gazekit/pkg/video"
)

// Synthetic is a capture source that renders a moving gradient test
// pattern. It lets the recorder run end to end without camera hardware.
type Synthetic struct {
	width  int
	height int
	rate   float64
	clock  func() float64
}

// NewSynthetic creates a test-pattern source with the given geometry and
// frame rate.
func NewSynthetic(width, height int, rate float64) *Synthetic {
	if rate <= 0 {
		rate = 30
	}
	return &Synthetic{
		width:  width,
		height: height,
		rate:   rate,
		clock: func() float64 {
			return float64(time.Now().UnixNano()) / 1e9
		},
	}
}

func (s *Synthetic) Capabilities() Capabilities {
	return Capabilities{
		FrameWidth:  s.width,
		FrameHeight: s.height,
		FrameRate:   s.rate,
	}
}

// RecentFrame renders the frame for the current frame interval. Timestamps
// are quantized to the frame rate, so callers polling faster than the rate
// see the same timestamp and can dedupe.
func (s *Synthetic) RecentFrame() (video.Frame, bool) {
	now := s.clock()
	ts := math.Floor(now*s.rate) / s.rate

	pixels := make([]byte, s.width*s.height*4)
	phase := byte(int(ts*s.rate) % 256)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := (y*s.width + x) * 4
			pixels[i] = byte(x) + phase
			pixels[i+1] = byte(y)
			pixels[i+2] = phase
			pixels[i+3] = 0xFF
		}
	}

	return video.Frame{
		Timestamp: ts,
		Width:     s.width,
		Height:    s.height,
		Pixels:    pixels,
	}, true
}

func (s *Synthetic) Intrinsics() Intrinsics {
	return Intrinsics{
		CameraModel: "dummy",
		CameraMatrix: [][]float64{
			{1000, 0, float64(s.width) / 2},
			{0, 1000, float64(s.height) / 2},
			{0, 0, 1},
		},
		DistCoefs:  []float64{0, 0, 0, 0, 0},
		Resolution: [2]int{s.width, s.height},
	}
}
