package schedule

import "time"

// Kind represents the type of schedule
type Kind string

const (
	KindAt    Kind = "at"
	KindEvery Kind = "every"
	KindCron  Kind = "cron"
)

// Schedule represents a time specification for a recording trigger
type Schedule struct {
	Kind Kind `json:"kind"`

	// For "at" schedule
	At string `json:"at,omitempty"` // ISO 8601 timestamp

	// For "every" schedule
	EveryMs  int64  `json:"everyMs,omitempty"`  // Interval in milliseconds
	AnchorMs *int64 `json:"anchorMs,omitempty"` // Optional anchor point

	// For "cron" schedule
	Expr string `json:"expr,omitempty"` // Cron expression (5-field format)
	TZ   string `json:"tz,omitempty"`   // Optional timezone
}

// Action represents what a trigger does when it fires
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Trigger publishes a recording start or stop request on its schedule
type Trigger struct {
	ID          string   `json:"id"`
	Action      Action   `json:"action"`
	SessionName string   `json:"sessionName,omitempty"` // Only meaningful for start triggers
	Enabled     bool     `json:"enabled"`
	Schedule    Schedule `json:"schedule"`
}

// Now returns current time in milliseconds
func Now() int64 {
	return time.Now().UnixMilli()
}

// Int64Ptr returns a pointer to an int64 value
func Int64Ptr(v int64) *int64 {
	return &v
}
