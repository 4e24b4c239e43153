package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedGame struct {
	game     *GinGame
	lastSeen time.Time
}

// GameStore keeps every live game in memory, keyed by game ID.
// Each lookup counts as activity on that game.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*storedGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*storedGame),
	}
}

func (s *GameStore) AddGame(game *GinGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = &storedGame{game: game, lastSeen: time.Now()}
}

func (s *GameStore) GetGame(id uuid.UUID) (*GinGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, exists := s.games[id]
	if !exists {
		return nil, false
	}
	sg.lastSeen = time.Now()
	return sg.game, true
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// LastSeen reports when the game was added or last looked up.
func (s *GameStore) LastSeen(id uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, exists := s.games[id]
	if !exists {
		return time.Time{}, false
	}
	return sg.lastSeen, true
}

// IdleSince returns the games not seen since cutoff, without touching them.
func (s *GameStore) IdleSince(cutoff time.Time) []*GinGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	var idle []*GinGame
	for _, sg := range s.games {
		if sg.lastSeen.Before(cutoff) {
			idle = append(idle, sg.game)
		}
	}
	return idle
}

// LeastRecent returns the game that has gone longest without activity.
func (s *GameStore) LeastRecent() (*GinGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *storedGame
	for _, sg := range s.games {
		if oldest == nil || sg.lastSeen.Before(oldest.lastSeen) {
			oldest = sg
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest.game, true
}
