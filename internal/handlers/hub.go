// internal/handlers/hub.go
package handlers

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// subscriber is one websocket connection's outgoing queue.
type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{ch: make(chan []byte, subscriberBuffer)}
}

// send queues data without blocking. It reports false if the queue is full or closed.
func (s *subscriber) send(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- data:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Hub fans game events out to the websocket connections following each game.
// It has its own lock so that games can publish while holding theirs.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) subscribe(gameID uuid.UUID) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := newSubscriber()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[*subscriber]struct{})
	}
	h.subs[gameID][s] = struct{}{}
	return s
}

func (h *Hub) unsubscribe(gameID uuid.UUID, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[gameID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, gameID)
		}
	}
	s.close()
}

// Close disconnects every subscriber of gameID.
func (h *Hub) Close(gameID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[gameID] {
		s.close()
	}
	delete(h.subs, gameID)
}

func (h *Hub) Subscribers(gameID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[gameID])
}

// Publish marshals msg once and queues it for every subscriber of gameID.
func (h *Hub) Publish(gameID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorf("Failed to marshal message for game %s: %v", gameID, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[gameID] {
		if !s.send(data) {
			h.logger.Warnf("Dropped message for a slow subscriber of game %s.", gameID)
		}
	}
}

// broadcastFn returns a function suitable for GinGame.BroadcastFn. While the
// game runs the computer's hand and the cards it draws from the stock stay hidden.
func (h *Hub) broadcastFn(gameID, computerID uuid.UUID) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		if ev.User != nil && ev.User.ID == computerID && ev.Type != game.EventGameEnd {
			ev.Hand = nil
			if ev.Type == game.EventPlayerDrawStockpile {
				ev.Card = nil
			}
		}
		h.Publish(gameID, ev)
	}
}
