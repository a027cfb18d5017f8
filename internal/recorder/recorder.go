package recorder

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gazekit/gazekit/internal/config"
	"github.com/gazekit/gazekit/internal/metrics"
	"github.com/gazekit/gazekit/pkg/capture"
	"github.com/gazekit/gazekit/pkg/diskspace"
	"github.com/gazekit/gazekit/pkg/notify"
	"github.com/gazekit/gazekit/pkg/recording"
	"github.com/gazekit/gazekit/pkg/stream"
	"github.com/gazekit/gazekit/pkg/video"
)

// Remote-clock sources must agree with the local synchronized clock to
// within this many seconds, or the start is refused.
const timeSyncThresholdS = 5.0

// sessionDirAttempts bounds the counter-suffix search for a free session
// directory.
const sessionDirAttempts = 1000

const softwareName = "gazekit"

// ErrAlreadyRecording is returned by Start while a session is active.
var ErrAlreadyRecording = errors.New("recording already running")

// ErrNotRecording is returned by Stop when no session is active.
var ErrNotRecording = errors.New("no recording running")

// State is the recorder lifecycle state
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Indicator receives the low-disk flag for whatever surface presents it to
// the operator.
type Indicator interface {
	SetLowDisk(active bool)
}

// Options configures a Recorder
type Options struct {
	Config config.RecorderConfig
	Source capture.Source
	Bus    *notify.Bus
	Logger zerolog.Logger

	// Optional collaborators
	Metrics   *metrics.Metrics
	Catalog   *recording.Catalog
	Indicator Indicator

	// SoftwareVersion is stamped into session metadata
	SoftwareVersion string

	// Clock returns the synchronized time in seconds. Defaults to the
	// system clock.
	Clock func() float64

	// SystemClock returns wall-clock time in seconds
	SystemClock func() float64

	// AvailableGB reports free space for the given path. Defaults to a
	// statfs-backed probe.
	AvailableGB func(path string) (float64, error)

	// DiskCheckInterval rate-limits the per-tick disk probe
	DiskCheckInterval time.Duration
}

// Recorder manages recording sessions: it creates session directories,
// fans capture events out to timestamped stream writers, writes the world
// video, and enforces disk-space admission control.
type Recorder struct {
	mu sync.Mutex

	cfg       config.RecorderConfig
	source    capture.Source
	bus       *notify.Bus
	log       zerolog.Logger
	metrics   *metrics.Metrics
	catalog   *recording.Catalog
	indicator Indicator
	version   string

	clock       func() float64
	systemClock func() float64
	availGB     func(path string) (float64, error)
	checkDisk   func() bool
	userDir     *userDirWatcher

	// Session state, valid only while state != StateIdle
	state       State
	recDir      string
	info        *recording.Info
	streams     *stream.Registry
	videoWriter video.Writer
	frameCount  int
	startSynced float64
	lowDisk     bool
}

// New creates a recorder. The capture source, bus, and logger are required.
func New(opts Options) (*Recorder, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("capture source is required")
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("notification bus is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = wallClock
	}
	systemClock := opts.SystemClock
	if systemClock == nil {
		systemClock = wallClock
	}
	availGB := opts.AvailableGB
	if availGB == nil {
		availGB = diskspace.AvailableGB
	}
	interval := opts.DiskCheckInterval
	if interval <= 0 {
		interval = diskspace.DefaultCheckInterval
	}

	r := &Recorder{
		cfg:         opts.Config,
		source:      opts.Source,
		bus:         opts.Bus,
		log:         opts.Logger.With().Str("component", "recorder").Logger(),
		metrics:     opts.Metrics,
		catalog:     opts.Catalog,
		indicator:   opts.Indicator,
		version:     opts.SoftwareVersion,
		clock:       clock,
		systemClock: systemClock,
		availGB:     availGB,
		checkDisk:   diskspace.NewMonitor(interval).ShouldCheck,
		state:       StateIdle,
	}
	r.userDir = newUserDirWatcher(opts.Config.UserDir, r.log)

	return r, nil
}

func wallClock() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// State returns the current lifecycle state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentPath returns the active session directory, or empty when idle
func (r *Recorder) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recDir
}

// Close releases the user-dir watcher and stops any active session
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.stopLocked(false)
	}
	r.mu.Unlock()
	return r.userDir.Close()
}

// OnNotify routes a bus notification to the recorder. While a session is
// active, a notification flagged for recording is appended to the notify
// stream and takes precedence over subject dispatch, even for start and
// stop requests. Otherwise start and stop requests change the session
// state.
func (r *Recorder) OnNotify(n notify.Notification) {
	if n.Record && r.State() == StateRecording {
		r.recordNotification(n)
		return
	}

	switch n.Subject {
	case notify.SubjectShouldStart:
		err := r.Start(n.StringField("session_name"))
		if errors.Is(err, ErrAlreadyRecording) {
			r.log.Warn().Msg("Recording already running, ignoring start request")
		} else if err != nil {
			r.log.Error().Err(err).Msg("Failed to start recording")
		}
	case notify.SubjectShouldStop:
		if err := r.Stop(); errors.Is(err, ErrNotRecording) {
			r.log.Info().Msg("Recording not running, ignoring stop request")
		}
	default:
		if n.Record {
			r.recordNotification(n)
		}
	}
}

// Start begins a new recording session. An empty session name falls back to
// the configured name, then to the current date.
func (r *Recorder) Start(sessionName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(sessionName)
}

// Stop ends the active session
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked(false)
}

func (r *Recorder) startLocked(sessionName string) error {
	if r.state != StateIdle {
		return ErrAlreadyRecording
	}
	r.state = StateStarting

	caps := r.source.Capabilities()

	// Remote-clock sources are refused until their frame timestamps agree
	// with the local synchronized clock.
	if caps.RemoteClock {
		if err := r.checkTimeSync(); err != nil {
			r.state = StateIdle
			r.log.Error().Err(err).Msg("Not starting recording")
			return err
		}
	}

	if sessionName == "" {
		sessionName = r.cfg.SessionName
	}
	if sessionName == "" {
		sessionName = time.Now().Format("2006_01_02")
	}

	recDir, err := createSessionDir(r.cfg.RootDir, sessionName)
	if err != nil {
		r.state = StateIdle
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	startSynced := r.clock()

	info, err := recording.NewEmptyInfo(recDir)
	if err != nil {
		r.state = StateIdle
		return err
	}
	info.RecordingName = sessionName
	info.SoftwareName = softwareName
	info.SoftwareVersion = r.version
	info.StartTimeSystemS = r.systemClock()
	info.StartTimeSyncedS = startSynced
	info.SystemInfo = systemInfo()
	if err := info.Save(); err != nil {
		r.state = StateIdle
		return err
	}

	writer, err := r.newVideoWriter(recDir, caps, startSynced)
	if err != nil {
		r.state = StateIdle
		return fmt.Errorf("failed to create video writer: %w", err)
	}

	r.recDir = recDir
	r.info = info
	r.streams = stream.NewRegistry(recDir)
	r.videoWriter = writer
	r.frameCount = 0
	r.startSynced = startSynced

	r.replayCalibration()

	r.state = StateRecording
	if r.metrics != nil {
		r.metrics.RecordingsStartedTotal.Inc()
	}

	r.log.Info().
		Str("rec_path", recDir).
		Str("session_name", sessionName).
		Msg("Started recording")

	r.bus.Publish(notify.Notification{
		Subject:   notify.SubjectStarted,
		Timestamp: startSynced,
		Fields: map[string]any{
			"rec_path":          recDir,
			"session_name":      sessionName,
			"record_eye":        r.cfg.RecordEye,
			"compression":       r.cfg.RawJPEG,
			"start_time_synced": startSynced,
		},
	})

	return nil
}

// checkTimeSync compares the newest frame timestamp against the
// synchronized clock. A missing frame means the source is not delivering
// yet, which is just as disqualifying as a skewed clock.
func (r *Recorder) checkTimeSync() error {
	frame, ok := r.source.RecentFrame()
	if !ok {
		return fmt.Errorf("capture source has not delivered a frame yet, cannot validate time sync")
	}
	skew := math.Abs(frame.Timestamp - r.clock())
	if skew > timeSyncThresholdS {
		return fmt.Errorf("capture clock is %.2fs away from the synchronized clock (max %.1fs), sync clocks before recording", skew, timeSyncThresholdS)
	}
	return nil
}

// newVideoWriter picks the first applicable container strategy. Raw JPEG
// passthrough takes precedence over the hardware buffer when the operator
// asked for it, so a source offering both still honors the low-CPU mode.
func (r *Recorder) newVideoWriter(recDir string, caps capture.Capabilities, startTime float64) (video.Writer, error) {
	switch {
	case caps.SupportsJPEG && r.cfg.RawJPEG:
		return video.NewJPEGWriter(filepath.Join(recDir, "world.mjpeg"), startTime)
	case caps.HasHWBuffer:
		return video.NewFLVWriter(filepath.Join(recDir, "world.flv"), startTime)
	default:
		return video.NewMPEGWriter(filepath.Join(recDir, "world.mjpeg"), startTime)
	}
}

// replayCalibration copies persisted calibration records from the user dir
// into the notify stream, so downstream analysis sees the calibration that
// was in effect when the session began.
func (r *Recorder) replayCalibration() {
	records := r.userDir.CalibrationRecords()
	if len(records) == 0 {
		return
	}
	w, err := r.streams.Get("notify")
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to open notify stream for calibration replay")
		return
	}
	if err := w.Extend(records); err != nil {
		r.log.Error().Err(err).Msg("Failed to replay calibration records")
		return
	}
	r.log.Debug().Int("records", len(records)).Msg("Replayed calibration records")
}

// stopLocked tears the session down. Every step runs even when an earlier
// one failed, so a single bad writer cannot hold the metadata or the
// remaining streams hostage.
func (r *Recorder) stopLocked(forced bool) error {
	if r.state == StateIdle {
		return ErrNotRecording
	}
	r.state = StateStopping
	r.log.Info().Str("rec_path", r.recDir).Msg("Stopping recording")

	recDir := r.recDir
	frameCount := r.frameCount
	duration := r.clock() - r.startSynced

	if r.videoWriter != nil {
		err := r.videoWriter.Release()
		switch {
		case errors.Is(err, video.ErrNoFramesWritten):
			r.log.Info().Msg("No video frames were recorded")
		case err != nil:
			r.log.Error().Err(err).Msg("Failed to release video writer")
		default:
			if err := r.source.Intrinsics().Save(recDir, "world"); err != nil {
				r.log.Error().Err(err).Msg("Failed to save camera intrinsics")
			}
		}
	}

	if r.streams != nil {
		if err := r.streams.CloseAll(); err != nil {
			r.log.Error().Err(err).Msg("Failed to close stream writers")
		}
	}

	r.copySurfaceDefinitions(recDir)

	if r.info != nil {
		r.info.DurationS = duration
		if err := r.info.Save(); err != nil {
			r.log.Error().Err(err).Msg("Failed to finalize session metadata")
		}
	}

	if len(r.cfg.UserInfo) > 0 {
		if err := recording.WriteUserInfo(recDir, r.cfg.UserInfo); err != nil {
			r.log.Error().Err(err).Msg("Failed to write user info file")
		}
	}

	if r.catalog != nil && r.info != nil {
		entry := recording.CatalogEntry{
			UUID:       r.info.RecordingUUID,
			Name:       r.info.RecordingName,
			Path:       recDir,
			StartedAt:  time.Unix(int64(r.info.StartTimeSystemS), 0),
			DurationS:  duration,
			FrameCount: frameCount,
		}
		if err := r.catalog.Insert(entry); err != nil {
			r.log.Warn().Err(err).Msg("Failed to index session in catalog")
		}
	}

	r.recDir = ""
	r.info = nil
	r.streams = nil
	r.videoWriter = nil
	r.frameCount = 0
	r.startSynced = 0
	r.state = StateIdle

	if r.metrics != nil {
		r.metrics.RecordingsStoppedTotal.Inc()
		if forced {
			r.metrics.ForcedStopsTotal.Inc()
		}
	}

	r.log.Info().
		Str("rec_path", recDir).
		Float64("duration_s", duration).
		Int("frames", frameCount).
		Msg("Stopped recording")

	r.bus.Publish(notify.Notification{
		Subject:   notify.SubjectStopped,
		Timestamp: r.clock(),
		Fields: map[string]any{
			"rec_path": recDir,
		},
	})

	return nil
}

// copySurfaceDefinitions carries marker-surface definitions from the user
// dir into the session, so the session replays with the surfaces that were
// defined at record time. Their absence is normal.
func (r *Recorder) copySurfaceDefinitions(recDir string) {
	files := r.userDir.SurfaceDefinitionFiles()
	if len(files) == 0 {
		r.log.Info().Msg("No surface definitions found, did you define any surfaces?")
		return
	}
	for _, src := range files {
		dst := filepath.Join(recDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			r.log.Error().Err(err).Str("file", src).Msg("Failed to copy surface definitions")
		}
	}
}

// recordNotification appends a record-flagged notification to the notify
// stream. Only meaningful while a session is active.
func (r *Recorder) recordNotification(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return
	}

	ts := n.Timestamp
	if ts == 0 {
		ts = r.clock()
		r.log.Error().Str("subject", n.Subject).Msg("Notification without timestamp, synthesizing one")
	}

	data := map[string]any{"subject": n.Subject}
	for k, v := range n.Fields {
		data[k] = v
	}

	w, err := r.streams.Get("notify")
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to open notify stream")
		return
	}
	if err := w.Append(stream.Record{
		Topic:     "notify." + n.Subject,
		Timestamp: ts,
		Data:      data,
	}); err != nil {
		r.log.Error().Err(err).Msg("Failed to record notification")
		return
	}
	if r.metrics != nil {
		r.metrics.EventRecordsTotal.WithLabelValues("notify").Inc()
	}
}

// createSessionDir allocates root/<name>/<NNN> with the lowest free 3-digit
// counter. The mkdir call itself is the uniqueness test, so two recorders
// racing for the same name cannot share a directory.
func createSessionDir(root, name string) (string, error) {
	base := filepath.Join(root, name)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	for i := 0; i < sessionDirAttempts; i++ {
		path := filepath.Join(base, fmt.Sprintf("%03d", i))
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free session directory under %s after %d attempts", base, sessionDirAttempts)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func systemInfo() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s %s (%s)", runtime.GOOS, runtime.GOARCH, hostname)
}
