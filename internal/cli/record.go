package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gazekit/gazekit/internal/config"
	"github.com/gazekit/gazekit/internal/logger"
	"github.com/gazekit/gazekit/internal/metrics"
	"github.com/gazekit/gazekit/internal/recorder"
	"github.com/gazekit/gazekit/pkg/capture"
	"github.com/gazekit/gazekit/pkg/notify"
	"github.com/gazekit/gazekit/pkg/recording"
	"github.com/gazekit/gazekit/pkg/remote"
	"github.com/gazekit/gazekit/pkg/schedule"
)

var (
	recordSessionName string
	recordAutostart   bool
	recordFrameWidth  int
	recordFrameHeight int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run the recording daemon",
	Long: `Run the recording daemon. Sessions are started and stopped through
bus notifications: immediately with --autostart, on schedule via configured
triggers, or remotely through the websocket bridge.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordSessionName, "session-name", "", "session name (default from config, then current date)")
	recordCmd.Flags().BoolVar(&recordAutostart, "autostart", true, "start a session immediately")
	recordCmd.Flags().IntVar(&recordFrameWidth, "frame-width", 1280, "synthetic source frame width")
	recordCmd.Flags().IntVar(&recordFrameHeight, "frame-height", 720, "synthetic source frame height")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if recordSessionName != "" {
		cfg.Recorder.SessionName = recordSessionName
	}

	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	lg, err := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		Console:  true,
		Pretty:   true,
		Scrub:    true,
		MaxSize:  cfg.Logging.MaxSize,
		MaxAge:   cfg.Logging.MaxAge,
		Compress: cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer lg.Close()
	log := lg.GetZerolog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := notify.NewBus()
	m := metrics.NewMetrics()

	if err := os.MkdirAll(cfg.Recorder.RootDir, 0o755); err != nil {
		return fmt.Errorf("failed to create recordings root: %w", err)
	}
	catalog, err := recording.OpenCatalog(cfg.Recorder.RootDir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open session catalog, sessions will not be indexed")
	} else {
		defer catalog.Close()
	}

	// The world camera. Real capture sources implement capture.Source and
	// plug in here; without hardware the synthetic pattern source keeps the
	// whole pipeline exercisable.
	source := capture.NewSynthetic(recordFrameWidth, recordFrameHeight, 30)

	rec, err := recorder.New(recorder.Options{
		Config:          cfg.Recorder,
		Source:          source,
		Bus:             bus,
		Logger:          log,
		Metrics:         m,
		Catalog:         catalog,
		SoftwareVersion: version,
	})
	if err != nil {
		return err
	}
	defer rec.Close()

	if cfg.Remote.Enabled {
		startRemoteBridge(ctx, cfg.Remote.Addr, bus, log)
	}
	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, m, log)
	}

	sched := schedule.NewScheduler(bus, log)
	defer sched.Stop()
	for _, trigger := range cfg.Triggers {
		if err := sched.Add(trigger); err != nil {
			log.Warn().Err(err).Str("trigger", trigger.ID).Msg("Skipping invalid trigger")
		}
	}

	if err := writePIDFile(cfg.DataDir); err != nil {
		log.Warn().Err(err).Msg("Failed to write PID file")
	} else {
		defer removePIDFile(cfg.DataDir)
	}

	ticks := make(chan recorder.Events)
	go produceTicks(ctx, source, cfg.Recorder.TickInterval(), ticks)

	if recordAutostart {
		bus.Publish(notify.Notification{
			Subject: notify.SubjectShouldStart,
			Fields:  map[string]any{"session_name": cfg.Recorder.SessionName},
		})
	}

	log.Info().Str("root", cfg.Recorder.RootDir).Msg("Recording daemon started")
	rec.Run(ctx, ticks)
	return nil
}

// produceTicks drives the recorder at the configured tick rate. Frames are
// deduplicated by timestamp so a tick rate above the capture rate does not
// feed the same frame twice.
func produceTicks(ctx context.Context, source capture.Source, interval time.Duration, ticks chan<- recorder.Events) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTS float64
	lastTick := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			events := recorder.Events{
				recorder.KeyDT: now.Sub(lastTick).Seconds(),
			}
			lastTick = now

			if frame, ok := source.RecentFrame(); ok && frame.Timestamp > lastTS {
				lastTS = frame.Timestamp
				events[recorder.KeyFrame] = frame
			}

			select {
			case ticks <- events:
			case <-ctx.Done():
				return
			}
		}
	}
}

func startRemoteBridge(ctx context.Context, addr string, bus *notify.Bus, log zerolog.Logger) {
	bridge := remote.NewBridge(bus, log)
	go bridge.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(remote.NotifyPath, bridge.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("Remote notification bridge listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Remote bridge server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}

func startMetricsServer(ctx context.Context, addr string, m *metrics.Metrics, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "gazekit.pid")
}

func writePIDFile(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(dataDir), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile(dataDir string) {
	os.Remove(pidFilePath(dataDir))
}
