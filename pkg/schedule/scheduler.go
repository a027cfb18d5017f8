package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gazekit/gazekit/pkg/notify"
)

// Scheduler fires recording triggers by publishing should_start/should_stop
// notifications on the bus. One-shot "at" triggers are disabled after firing;
// "every" and "cron" triggers are rearmed.
type Scheduler struct {
	bus      *notify.Bus
	log      zerolog.Logger
	triggers map[string]*Trigger
	timers   map[string]*time.Timer
	mu       sync.Mutex
	stopped  bool
}

// NewScheduler creates a scheduler publishing on bus.
func NewScheduler(bus *notify.Bus, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		bus:      bus,
		log:      log,
		triggers: make(map[string]*Trigger),
		timers:   make(map[string]*time.Timer),
	}
}

// Add registers a trigger and arms it if enabled.
func (s *Scheduler) Add(trigger Trigger) error {
	if trigger.ID == "" {
		return fmt.Errorf("trigger id is required")
	}
	if trigger.Action != ActionStart && trigger.Action != ActionStop {
		return fmt.Errorf("unknown trigger action: %s", trigger.Action)
	}
	if _, err := NextRun(trigger.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	s.triggers[trigger.ID] = &trigger
	if trigger.Enabled {
		s.armLocked(&trigger)
	}

	s.log.Info().
		Str("trigger", trigger.ID).
		Str("action", string(trigger.Action)).
		Str("kind", string(trigger.Schedule.Kind)).
		Msg("Recording trigger registered")

	return nil
}

// Remove disarms and deletes a trigger.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	delete(s.triggers, id)
}

// Stop disarms every trigger.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// armLocked schedules the next firing. Caller holds s.mu.
func (s *Scheduler) armLocked(trigger *Trigger) {
	nextMs, err := NextRun(trigger.Schedule)
	if err != nil {
		s.log.Warn().Err(err).Str("trigger", trigger.ID).Msg("Failed to compute next run")
		return
	}

	delay := time.Duration(nextMs-Now()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}

	id := trigger.ID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.fire(id)
	})
}

// fire publishes the trigger's notification and rearms recurring schedules.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	trigger, ok := s.triggers[id]
	if !ok || s.stopped || !trigger.Enabled {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)

	if trigger.Schedule.Kind == KindAt {
		trigger.Enabled = false
	} else {
		s.armLocked(trigger)
	}
	action := trigger.Action
	sessionName := trigger.SessionName
	s.mu.Unlock()

	n := notify.Notification{Subject: notify.SubjectShouldStop}
	if action == ActionStart {
		n = notify.Notification{
			Subject: notify.SubjectShouldStart,
			Fields:  map[string]any{"session_name": sessionName},
		}
	}

	s.log.Info().Str("trigger", id).Str("subject", n.Subject).Msg("Recording trigger fired")
	s.bus.Publish(n)
}
