// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/ginrummy/internal/database"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/jason-s-yu/ginrummy/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	humanName    = "You"
	computerName = "Computer"

	DefaultMaxGames    = 1000
	DefaultIdleTimeout = 10 * time.Minute
	DefaultFinishedTTL = time.Minute
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadSource     = errors.New("unknown draw source")
)

// ResultRecorder archives finished games, normally a *database.Store.
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, res database.GameResult) error
}

// GameServer is a high-level struct that holds a reference to a GameStore
// and seats a human against the computer for each web session.
type GameServer struct {
	GameStore *game.GameStore
	Logger    *logrus.Logger
	Rules     game.HouseRules

	// Seed makes every new game reproducible when non-zero.
	Seed int64

	// Publisher and Results are optional.
	Publisher game.ActionPublisher
	Results   ResultRecorder

	// OriginPatterns is passed to websocket.Accept.
	OriginPatterns []string

	// MaxGames caps the store; dealing past it evicts the least recently used game.
	// Zero means no cap.
	MaxGames int
	// IdleTimeout and FinishedTTL are how long SweepIdle lets unfinished and
	// finished games sit without a request.
	IdleTimeout time.Duration
	FinishedTTL time.Duration

	hub *Hub

	seedMu sync.Mutex
	dealt  int64
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		GameStore:      game.NewGameStore(),
		Logger:         logger,
		Rules:          game.DefaultHouseRules(),
		OriginPatterns: []string{"*"},
		MaxGames:       DefaultMaxGames,
		IdleTimeout:    DefaultIdleTimeout,
		FinishedTTL:    DefaultFinishedTTL,
		hub:            NewHub(logger),
	}
}

func (gs *GameServer) nextRand() *rand.Rand {
	gs.seedMu.Lock()
	defer gs.seedMu.Unlock()
	gs.dealt++
	if gs.Seed == 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(gs.Seed + gs.dealt))
}

// NewGame deals a fresh game between the human and a random computer player
// and adds it to the store.
func (gs *GameServer) NewGame() (*game.GinGame, error) {
	rng := gs.nextRand()
	human := game.NewPlayer(humanName, nil)
	computer := game.NewPlayer(computerName, game.NewRandomStrategy(rand.New(rand.NewSource(rng.Int63()))))

	g := game.NewGinGame(rng, human, computer)
	g.HouseRules = gs.Rules
	g.SetLogger(gs.Logger)
	g.Publisher = gs.Publisher
	g.BroadcastFn = gs.hub.broadcastFn(g.ID, computer.ID)
	g.OnGameEnd = gs.recordResult

	g.Mu.Lock()
	err := g.Deal()
	g.Mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}

	gs.makeRoom()
	gs.GameStore.AddGame(g)
	gs.Logger.Infof("Started game %s.", g.ID)
	return g, nil
}

// EndGame forgets a game and disconnects anyone following it.
func (gs *GameServer) EndGame(g *game.GinGame) {
	gs.GameStore.DeleteGame(g.ID)
	gs.hub.Close(g.ID)
}

// makeRoom evicts least recently used games until one more fits under MaxGames.
func (gs *GameServer) makeRoom() {
	if gs.MaxGames <= 0 {
		return
	}
	for gs.GameStore.Len() >= gs.MaxGames {
		oldest, ok := gs.GameStore.LeastRecent()
		if !ok {
			return
		}
		gs.Logger.Infof("Store full, evicting game %s.", oldest.ID)
		gs.EndGame(oldest)
	}
}

// SweepIdle ends finished games unseen for FinishedTTL and unfinished ones
// unseen for IdleTimeout. It returns how many games were removed.
func (gs *GameServer) SweepIdle(now time.Time) int {
	shortest := gs.FinishedTTL
	if gs.IdleTimeout < shortest {
		shortest = gs.IdleTimeout
	}
	removed := 0
	for _, g := range gs.GameStore.IdleSince(now.Add(-shortest)) {
		g.Mu.Lock()
		over := g.IsOver()
		g.Mu.Unlock()

		ttl := gs.IdleTimeout
		if over {
			ttl = gs.FinishedTTL
		}
		seen, ok := gs.GameStore.LastSeen(g.ID)
		if !ok || !seen.Before(now.Add(-ttl)) {
			continue
		}
		gs.Logger.Debugf("Sweeping idle game %s (finished=%v).", g.ID, over)
		gs.EndGame(g)
		removed++
	}
	return removed
}

// RunSweeper calls SweepIdle every interval until ctx is cancelled.
func (gs *GameServer) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := gs.SweepIdle(now); n > 0 {
				gs.Logger.Infof("Swept %d idle games, %d left.", n, gs.GameStore.Len())
			}
		}
	}
}

// recordResult archives the outcome without holding up the game.
// Assumes lock is held.
func (gs *GameServer) recordResult(g *game.GinGame, outcome game.Outcome) {
	if gs.Results == nil {
		return
	}
	res := database.GameResult{
		GameID:     g.ID,
		Status:     database.StatusExhausted,
		Turns:      outcome.Turns,
		FinalHands: make(map[string][]string, len(g.Players)),
	}
	if outcome.Winner != nil {
		res.Status = database.StatusCompleted
		res.WinnerName = outcome.Winner.Name
	}
	for _, p := range g.Players {
		res.FinalHands[p.Name] = p.Hand.Codes()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gs.Results.RecordGameResult(ctx, res); err != nil {
			gs.Logger.Errorf("Failed to record result of game %s: %v", res.GameID, err)
		}
	}()
}

// humanPlayer returns the seat without a strategy.
func humanPlayer(g *game.GinGame) *game.Player {
	for _, p := range g.Players {
		if !p.IsComputer() {
			return p
		}
	}
	return nil
}

// applyAction performs one of the human's moves. After a discard the
// computer plays its whole turn straight away.
// Assumes lock is held.
func (gs *GameServer) applyAction(g *game.GinGame, human *game.Player, action models.GameAction) error {
	switch action.ActionType {
	case models.ActionDraw:
		source := action.PayloadString("source")
		if source != "" && source != string(game.SourceStock) && source != string(game.SourceDiscard) {
			return fmt.Errorf("%w: %q", ErrBadSource, source)
		}
		_, err := g.Draw(human.ID, game.ParseDrawSource(source))
		if errors.Is(err, game.ErrEmptyDeck) {
			// the round is over; the table shows the result
			return nil
		}
		return err

	case models.ActionDiscard:
		card, err := models.ParseCard(action.PayloadString("card"))
		if err != nil {
			return err
		}
		if err := g.Discard(human.ID, card); err != nil {
			return err
		}
		return gs.playComputer(g)

	case models.ActionSort:
		return g.SortHand(human.ID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.ActionType)
	}
}

// playComputer runs automatic turns until it is the human's move or the game ends.
// Assumes lock is held.
func (gs *GameServer) playComputer(g *game.GinGame) error {
	for !g.IsOver() && g.CurrentPlayer().IsComputer() {
		if err := g.PlayAutoTurn(); err != nil {
			return fmt.Errorf("computer turn: %w", err)
		}
	}
	return nil
}

// clientErrors are the failures caused by the request rather than the server.
var clientErrors = []error{
	ErrUnknownAction,
	ErrBadSource,
	models.ErrInvalidCard,
	models.ErrInvalidRank,
	models.ErrInvalidSuit,
	game.ErrCardNotFound,
	game.ErrGameOver,
	game.ErrNotStarted,
	game.ErrNotYourTurn,
	game.ErrAlreadyDrawn,
	game.ErrMustDrawFirst,
	game.ErrDiscardDrawDisallowed,
	game.ErrDiscardPileEmpty,
	game.ErrDiscardJustTaken,
	game.ErrUnknownPlayer,
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
