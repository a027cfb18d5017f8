package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/gazekit/gazekit/pkg/notify"
)

// wireNotification is the JSON form notifications take on the wire.
type wireNotification struct {
	Subject   string         `json:"subject"`
	Timestamp float64        `json:"timestamp,omitempty"`
	Record    bool           `json:"record,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Bridge relays notifications flagged remote_notify=all to connected
// websocket peers and injects notifications received from peers into the
// local bus. Injected notifications have their remote flag cleared so they
// are not bounced back out.
type Bridge struct {
	bus      *notify.Bus
	log      zerolog.Logger
	upgrader websocket.Upgrader
	peers    map[string]*peer
	mu       sync.Mutex
}

// NewBridge creates a bridge on top of the local bus.
func NewBridge(bus *notify.Bus, log zerolog.Logger) *Bridge {
	return &Bridge{
		bus: bus,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		peers: make(map[string]*peer),
	}
}

// PeerCount returns the number of connected peers.
func (b *Bridge) PeerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.peers)
}

// Handler returns the websocket upgrade endpoint peers connect to.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}

		id, err := gonanoid.New(8)
		if err != nil {
			conn.Close()
			return
		}

		p := &peer{
			id:   id,
			conn: conn,
			send: make(chan []byte, 32),
		}

		b.mu.Lock()
		b.peers[id] = p
		b.mu.Unlock()

		b.log.Info().Str("peer", id).Str("addr", r.RemoteAddr).Msg("Remote peer connected")

		go b.writeLoop(p)
		b.readLoop(p)
	})
}

// Run forwards locally published remote-flagged notifications to peers until
// the context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	ch, cancel := b.bus.Subscribe("", 128)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if n.RemoteNotify != notify.RemoteAll {
				continue
			}
			b.broadcast(n)
		}
	}
}

func (b *Bridge) broadcast(n notify.Notification) {
	data, err := json.Marshal(wireNotification{
		Subject:   n.Subject,
		Timestamp: n.Timestamp,
		Record:    n.Record,
		Fields:    n.Fields,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("subject", n.Subject).Msg("Failed to marshal notification")
		return
	}

	b.mu.Lock()
	for _, p := range b.peers {
		select {
		case p.send <- data:
		default:
			b.log.Warn().Str("peer", p.id).Msg("Peer send buffer full, dropping notification")
		}
	}
	b.mu.Unlock()
}

func (b *Bridge) writeLoop(p *peer) {
	for data := range p.send {
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.log.Debug().Err(err).Str("peer", p.id).Msg("Peer write failed")
			return
		}
	}
}

func (b *Bridge) readLoop(p *peer) {
	defer b.removePeer(p.id)

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			b.log.Info().Str("peer", p.id).Msg("Remote peer disconnected")
			return
		}

		var wire wireNotification
		if err := json.Unmarshal(data, &wire); err != nil {
			b.log.Warn().Err(err).Str("peer", p.id).Msg("Dropping malformed remote notification")
			continue
		}
		if wire.Subject == "" {
			continue
		}

		// RemoteNotify stays empty so the injected notification is not
		// broadcast back out.
		b.bus.Publish(notify.Notification{
			Subject:   wire.Subject,
			Timestamp: wire.Timestamp,
			Record:    wire.Record,
			Fields:    wire.Fields,
		})
	}
}

func (b *Bridge) removePeer(id string) {
	b.mu.Lock()
	p, ok := b.peers[id]
	if ok {
		delete(b.peers, id)
	}
	b.mu.Unlock()

	if ok {
		close(p.send)
		p.conn.Close()
	}
}

func (b *Bridge) closeAll() {
	b.mu.Lock()
	peers := make([]*peer, 0, len(b.peers))
	for _, p := range b.peers {
		peers = append(peers, p)
	}
	b.peers = make(map[string]*peer)
	b.mu.Unlock()

	for _, p := range peers {
		close(p.send)
		p.conn.Close()
	}
}
