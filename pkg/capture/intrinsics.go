package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Intrinsics holds the capture device's camera calibration.
type Intrinsics struct {
	CameraModel  string      `json:"camera_model"`
	CameraMatrix [][]float64 `json:"camera_matrix"`
	DistCoefs    []float64   `json:"dist_coefs"`
	Resolution   [2]int      `json:"resolution"`
}

// Save writes the intrinsics alongside the recording as <name>.intrinsics.
func (in Intrinsics) Save(dir, name string) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal intrinsics: %w", err)
	}

	path := filepath.Join(dir, name+".intrinsics")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write intrinsics: %w", err)
	}
	return nil
}

// LoadIntrinsics reads a saved intrinsics file.
func LoadIntrinsics(dir, name string) (Intrinsics, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".intrinsics"))
	if err != nil {
		return Intrinsics{}, fmt.Errorf("failed to read intrinsics: %w", err)
	}

	var in Intrinsics
	if err := json.Unmarshal(data, &in); err != nil {
		return Intrinsics{}, fmt.Errorf("failed to parse intrinsics: %w", err)
	}
	return in, nil
}
