package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsicsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in := Intrinsics{
		CameraModel: "radial",
		CameraMatrix: [][]float64{
			{800, 0, 320},
			{0, 800, 240},
			{0, 0, 1},
		},
		DistCoefs:  []float64{0.1, -0.05, 0, 0, 0},
		Resolution: [2]int{640, 480},
	}
	require.NoError(t, in.Save(dir, "world"))

	loaded, err := LoadIntrinsics(dir, "world")
	require.NoError(t, err)
	assert.Equal(t, in, loaded)
}

func TestLoadIntrinsicsMissing(t *testing.T) {
	_, err := LoadIntrinsics(t.TempDir(), "world")
	assert.Error(t, err)
}
