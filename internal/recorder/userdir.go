package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/gazekit/gazekit/pkg/stream"
)

// Calibration snapshot files the recorder replays into the notify stream at
// session start.
var calibrationFileNames = []string{
	"prerecorded_calibration_setup.json",
	"prerecorded_calibration_result.json",
}

const surfaceDefinitionsPrefix = "surface_definitions"

// userDirWatcher keeps a cached view of the user directory, so the start
// and stop paths read a current snapshot without globbing on every call.
// When the fsnotify watch cannot be established it degrades to direct
// directory scans.
type userDirWatcher struct {
	dir string
	log zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu           sync.Mutex
	surfaceFiles []string
}

func newUserDirWatcher(dir string, log zerolog.Logger) *userDirWatcher {
	u := &userDirWatcher{
		dir:  dir,
		log:  log.With().Str("component", "userdir").Logger(),
		done: make(chan struct{}),
	}

	if dir == "" {
		return u
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		u.log.Warn().Err(err).Msg("Failed to create user directory")
		return u
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		u.log.Warn().Err(err).Msg("Failed to create user directory watcher, falling back to direct scans")
		return u
	}
	if err := watcher.Add(dir); err != nil {
		u.log.Warn().Err(err).Msg("Failed to watch user directory, falling back to direct scans")
		watcher.Close()
		return u
	}

	u.watcher = watcher
	u.rescan()
	go u.watch()

	return u
}

func (u *userDirWatcher) watch() {
	for {
		select {
		case <-u.done:
			return
		case _, ok := <-u.watcher.Events:
			if !ok {
				return
			}
			u.rescan()
		case err, ok := <-u.watcher.Errors:
			if !ok {
				return
			}
			u.log.Warn().Err(err).Msg("User directory watch error")
		}
	}
}

func (u *userDirWatcher) rescan() {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		u.log.Warn().Err(err).Msg("Failed to scan user directory")
		return
	}

	var surfaces []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), surfaceDefinitionsPrefix) {
			surfaces = append(surfaces, filepath.Join(u.dir, entry.Name()))
		}
	}
	sort.Strings(surfaces)

	u.mu.Lock()
	u.surfaceFiles = surfaces
	u.mu.Unlock()
}

// SurfaceDefinitionFiles returns the current surface definition files in
// the user directory.
func (u *userDirWatcher) SurfaceDefinitionFiles() []string {
	if u.watcher == nil {
		return u.scanSurfaceFiles()
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.surfaceFiles...)
}

func (u *userDirWatcher) scanSurfaceFiles() []string {
	if u.dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(u.dir, surfaceDefinitionsPrefix+"*"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// CalibrationRecords loads persisted calibration notifications from the
// user directory as notify-stream records. Missing files are normal; a file
// that exists but cannot be parsed is logged and skipped.
func (u *userDirWatcher) CalibrationRecords() []stream.Record {
	if u.dir == "" {
		return nil
	}

	var records []stream.Record
	for _, name := range calibrationFileNames {
		path := filepath.Join(u.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				u.log.Warn().Err(err).Str("file", path).Msg("Failed to read calibration file")
			}
			continue
		}

		var note map[string]any
		if err := json.Unmarshal(data, &note); err != nil {
			u.log.Warn().Err(err).Str("file", path).Msg("Failed to parse calibration file")
			continue
		}

		subject, _ := note["subject"].(string)
		if subject == "" {
			u.log.Warn().Str("file", path).Msg("Calibration file has no subject, skipping")
			continue
		}
		timestamp, _ := note["timestamp"].(float64)

		records = append(records, stream.Record{
			Topic:     "notify." + subject,
			Timestamp: timestamp,
			Data:      note,
		})
	}
	return records
}

// Close stops the watch goroutine
func (u *userDirWatcher) Close() error {
	if u.watcher == nil {
		return nil
	}
	close(u.done)
	return u.watcher.Close()
}
