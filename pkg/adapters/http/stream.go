package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aretw0/promptflow/pkg/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 50 * time.Second

	streamBuffer = 16
)

// StreamManager fans change events out to the subscribers of each flow.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan []byte]struct{} // flow name -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for the events of a flow. The
// returned cancel func closes the channel.
func (sm *StreamManager) Subscribe(name string) (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, streamBuffer)
	if _, ok := sm.subscribers[name]; !ok {
		sm.subscribers[name] = make(map[chan []byte]struct{})
	}
	sm.subscribers[name][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[name]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, name)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions of a flow.
func (sm *StreamManager) Subscribers(name string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[name])
}

// Broadcast never blocks: slow subscribers miss messages.
func (sm *StreamManager) Broadcast(name string, msg []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[name] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("Stream: client buffer full, dropping message", "flow", name)
		}
	}
}

func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := domain.ValidateFlowName(name); err != nil {
		s.writeError(w, err)
		return
	}

	// Subscribe first so no event is lost between the handshake and the loop.
	events, cancel := s.streams.Subscribe(name)
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("Failed to upgrade connection", "flow", name, "err", err)
		return
	}
	defer conn.Close()
	s.logger.Info("Stream: client subscribed", "flow", name, "remote", r.RemoteAddr)

	// The read loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.logger.Info("Stream: client disconnected", "flow", name)
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("Stream: write failed", "flow", name, "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
