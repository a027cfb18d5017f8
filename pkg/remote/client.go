package remote

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/gazekit/gazekit/pkg/notify"
)

// NotifyPath is the websocket endpoint the bridge serves and clients dial.
const NotifyPath = "/notify"

// Send dials a running recorder's bridge and delivers one notification.
// Used by the control commands to drive a recorder in another process.
func Send(addr string, n notify.Notification) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: NotifyPath}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to recorder at %s: %w", addr, err)
	}
	defer conn.Close()

	data, err := json.Marshal(wireNotification{
		Subject:   n.Subject,
		Timestamp: n.Timestamp,
		Record:    n.Record,
		Fields:    n.Fields,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
}
