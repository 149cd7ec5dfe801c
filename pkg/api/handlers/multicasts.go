package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scriptd/scriptd/pkg/logger"
	"github.com/scriptd/scriptd/pkg/multicast"
)

const (
	wsSendBuffer   = 64
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// MulticastHandler streams live pool messages over a websocket. Each
// connection holds its own pool subscription filtered by query parameters
// (source, destination, tag); the subscription uses the pool's dispatcher,
// so slow clients only drop their own frames.
type MulticastHandler struct {
	pool     *multicast.Pool
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewMulticastHandler creates a new multicast stream handler.
func NewMulticastHandler(pool *multicast.Pool, log logger.Logger) *MulticastHandler {
	return &MulticastHandler{
		pool: pool,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wireMessage is the JSON frame sent to websocket clients.
type wireMessage struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Tags        []string  `json:"tags,omitempty"`
	Kind        string    `json:"kind"`
	Payload     any       `json:"payload,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

func toWire(msg multicast.Message) wireMessage {
	out := wireMessage{
		Source:      msg.Source,
		Destination: msg.Destination,
		Tags:        msg.Tags,
		Kind:        "none",
		SentAt:      msg.SentAt,
	}
	if msg.Payload != nil {
		out.Kind = msg.Payload.Kind()
		out.Payload = msg.Payload
	}
	return out
}

// Stream handles GET /ws/multicasts.
func (h *MulticastHandler) Stream(w http.ResponseWriter, r *http.Request) {
	filter := multicast.Filter{}
	q := r.URL.Query()
	if src := q.Get("source"); src != "" {
		filter.Sources = []string{src}
	}
	if dst := q.Get("destination"); dst != "" {
		filter.Destinations = []string{dst}
	}
	if tag := q.Get("tag"); tag != "" {
		filter.Tags = []string{tag}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan wireMessage, wsSendBuffer)
	handle, err := h.pool.Subscribe(filter, func(msg multicast.Message) {
		select {
		case send <- toWire(msg):
		default:
			// Slow client; drop the frame rather than stall the dispatcher.
		}
	}, nil)
	if err != nil {
		h.log.Warn("multicast tap subscribe failed", "error", err)
		_ = conn.Close()
		return
	}

	done := make(chan struct{})

	// Reader: only there to observe the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		h.pool.Unsubscribe(handle)
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
