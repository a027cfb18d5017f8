package recorder

import (
	"errors"

	"github.com/gazekit/gazekit/pkg/notify"
	"github.com/gazekit/gazekit/pkg/stream"
	"github.com/gazekit/gazekit/pkg/video"
)

// Tick processes one capture cycle: disk admission check, stream fanout,
// and the world video frame. Ticks arriving while no session is active are
// ignored.
func (r *Recorder) Tick(events Events) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return
	}

	// Admission control runs before any writes, so a full disk stops the
	// session instead of producing truncated files.
	if stopped := r.checkDiskLocked(); stopped {
		return
	}

	for key, value := range events {
		if reservedKey(key) {
			continue
		}
		records, ok := value.([]stream.Record)
		if !ok || len(records) == 0 {
			continue
		}
		w, err := r.streams.Get(key)
		if err != nil {
			r.log.Error().Err(err).Str("stream", key).Msg("Failed to open stream writer")
			continue
		}
		if err := w.Extend(records); err != nil {
			r.log.Error().Err(err).Str("stream", key).Msg("Failed to write stream records")
			continue
		}
		if r.metrics != nil {
			r.metrics.EventRecordsTotal.WithLabelValues(key).Add(float64(len(records)))
		}
	}

	if frame, ok := events.Frame(); ok {
		r.writeFrameLocked(frame)
	}
}

func (r *Recorder) writeFrameLocked(frame video.Frame) {
	err := r.videoWriter.WriteVideoFrame(frame)
	if err == nil {
		r.frameCount++
		if r.metrics != nil {
			r.metrics.FramesWrittenTotal.Inc()
		}
		return
	}

	if r.metrics != nil {
		r.metrics.FramesDroppedTotal.Inc()
	}

	if errors.Is(err, video.ErrNonMonotonicTimestamp) {
		r.log.Error().
			Float64("timestamp", frame.Timestamp).
			Msg("Received non-monotonic frame timestamp, stopping recording")
		// One stop request for this process, one for remote peers.
		r.bus.Publish(notify.Notification{
			Subject:   notify.SubjectShouldStop,
			Timestamp: r.clock(),
		})
		r.bus.Publish(notify.Notification{
			Subject:      notify.SubjectShouldStop,
			Timestamp:    r.clock(),
			RemoteNotify: notify.RemoteAll,
		})
		return
	}

	r.log.Error().Err(err).Msg("Failed to write video frame")
}

// checkDiskLocked probes free space at most once per interval. It raises
// and clears the low-disk indicator around the warn threshold and forces a
// stop at the abort threshold. Returns true when the session was stopped.
func (r *Recorder) checkDiskLocked() bool {
	if !r.checkDisk() {
		return false
	}

	avail, err := r.availGB(r.recDir)
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to query free disk space")
		return false
	}
	if r.metrics != nil {
		r.metrics.DiskFreeGB.Set(avail)
	}

	if avail < r.cfg.WarnThresholdGB {
		if !r.lowDisk {
			r.lowDisk = true
			if r.indicator != nil {
				r.indicator.SetLowDisk(true)
			}
			r.log.Warn().Float64("available_gb", avail).Msg("Low disk space")
		}
	} else if r.lowDisk {
		r.lowDisk = false
		if r.indicator != nil {
			r.indicator.SetLowDisk(false)
		}
	}

	if avail <= r.cfg.AbortThresholdGB {
		r.log.Error().
			Float64("available_gb", avail).
			Msg("Recording interrupted, not enough space left on the drive")
		r.stopLocked(true)
		return true
	}

	return false
}
