package notify

// Well-known subjects exchanged between the recorder and its collaborators.
const (
	SubjectShouldStart = "recording.should_start"
	SubjectShouldStop  = "recording.should_stop"
	SubjectStarted     = "recording.started"
	SubjectStopped     = "recording.stopped"
)

// RemoteAll marks a notification for fanout to every connected remote peer.
const RemoteAll = "all"

// Notification is an immutable message identified by its Subject. Timestamp
// is in the synchronized clock domain; zero means the producer did not stamp
// it. Record asks the recorder to persist the notification into the session's
// notify stream. Subject-specific payload lives in Fields.
type Notification struct {
	Subject      string
	Timestamp    float64
	Record       bool
	RemoteNotify string
	Fields       map[string]any
}

// Field returns a payload field, or nil if absent.
func (n Notification) Field(key string) any {
	if n.Fields == nil {
		return nil
	}
	return n.Fields[key]
}

// StringField returns a payload field as a string, or "" if absent or not a
// string.
func (n Notification) StringField(key string) string {
	s, _ := n.Field(key).(string)
	return s
}

// BoolField returns a payload field as a bool, with a fallback for absent or
// non-bool values.
func (n Notification) BoolField(key string, fallback bool) bool {
	b, ok := n.Field(key).(bool)
	if !ok {
		return fallback
	}
	return b
}
