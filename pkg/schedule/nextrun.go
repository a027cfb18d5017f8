package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the standard 5-field minute-resolution expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the schedule's next fire time in Unix milliseconds.
func NextRun(s Schedule) (int64, error) {
	switch s.Kind {
	case KindAt:
		if s.At == "" {
			return 0, fmt.Errorf("'at' schedule requires 'at' field")
		}
		t, err := time.Parse(time.RFC3339, s.At)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp: %w", err)
		}
		return t.UnixMilli(), nil
	case KindEvery:
		return nextAligned(s, Now())
	case KindCron:
		return nextCron(s, time.Now())
	default:
		return 0, fmt.Errorf("unknown schedule kind: %s", s.Kind)
	}
}

// nextAligned advances past nowMs to the next interval boundary. Without an
// anchor the interval starts now; with one, boundaries stay phase-locked to
// the anchor regardless of when the trigger was registered.
func nextAligned(s Schedule, nowMs int64) (int64, error) {
	if s.EveryMs <= 0 {
		return 0, fmt.Errorf("'every' schedule requires positive 'everyMs' value")
	}
	if s.AnchorMs == nil {
		return nowMs + s.EveryMs, nil
	}

	anchor := *s.AnchorMs
	if anchor > nowMs {
		return anchor, nil
	}
	return nowMs + s.EveryMs - (nowMs-anchor)%s.EveryMs, nil
}

func nextCron(s Schedule, now time.Time) (int64, error) {
	if s.Expr == "" {
		return 0, fmt.Errorf("'cron' schedule requires 'expr' field")
	}
	sched, err := cronParser.Parse(s.Expr)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression: %w", err)
	}
	if s.TZ != "" {
		loc, err := time.LoadLocation(s.TZ)
		if err != nil {
			return 0, fmt.Errorf("invalid timezone: %w", err)
		}
		now = now.In(loc)
	}
	return sched.Next(now).UnixMilli(), nil
}
