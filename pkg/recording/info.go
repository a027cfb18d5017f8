package recording

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// InfoFileName is the metadata file written into every session directory.
const InfoFileName = "info.json"

const metaVersion = "2.0"

// Info is the session metadata descriptor. It is written with placeholder
// duration at session start and rewritten fully populated at stop; only the
// second write is authoritative.
type Info struct {
	MetaVersion      string  `json:"meta_version"`
	RecordingName    string  `json:"recording_name"`
	SoftwareName     string  `json:"recording_software_name"`
	SoftwareVersion  string  `json:"recording_software_version"`
	RecordingUUID    string  `json:"recording_uuid"`
	StartTimeSystemS float64 `json:"start_time_system_s"`
	StartTimeSyncedS float64 `json:"start_time_synced_s"`
	DurationS        float64 `json:"duration_s"`
	SystemInfo       string  `json:"system_info"`

	dir string
}

const infoSchema = `{
	"type": "object",
	"required": [
		"meta_version",
		"recording_name",
		"recording_software_name",
		"recording_software_version",
		"recording_uuid",
		"start_time_system_s",
		"start_time_synced_s",
		"duration_s"
	],
	"properties": {
		"meta_version": {"type": "string", "minLength": 1},
		"recording_name": {"type": "string"},
		"recording_software_name": {"type": "string", "minLength": 1},
		"recording_software_version": {"type": "string"},
		"recording_uuid": {"type": "string", "minLength": 36, "maxLength": 36},
		"start_time_system_s": {"type": "number"},
		"start_time_synced_s": {"type": "number"},
		"duration_s": {"type": "number", "minimum": 0},
		"system_info": {"type": "string"}
	}
}`

// NewEmptyInfo allocates the metadata descriptor for a new session and
// immediately persists it with a placeholder duration, so a crash mid-session
// still leaves a parseable metadata file behind.
func NewEmptyInfo(dir string) (*Info, error) {
	info := &Info{
		MetaVersion:   metaVersion,
		RecordingUUID: uuid.New().String(),
		dir:           dir,
	}
	if err := info.Save(); err != nil {
		return nil, err
	}
	return info, nil
}

// Save rewrites the metadata file atomically.
func (i *Info) Save() error {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recording info: %w", err)
	}

	path := filepath.Join(i.dir, InfoFileName)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recording info: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace recording info: %w", err)
	}
	return nil
}

// LoadInfo reads and validates the metadata file from a session directory.
func LoadInfo(dir string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read recording info: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(infoSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate recording info: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid recording info: %s", result.Errors()[0])
	}

	info := &Info{dir: dir}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("failed to parse recording info: %w", err)
	}
	return info, nil
}
