// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/cache"
	"github.com/jason-s-yu/ginrummy/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is a step of the game's state machine:
// dealing -> in_progress -> {gin_win, deck_exhausted}.
type Phase string

const (
	PhaseDealing       Phase = "dealing"
	PhaseInProgress    Phase = "in_progress"
	PhaseGinWin        Phase = "gin_win"
	PhaseDeckExhausted Phase = "deck_exhausted"
)

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseGinWin || p == PhaseDeckExhausted
}

// Outcome is the result of a finished (or running) game.
type Outcome struct {
	Phase  Phase
	Winner *Player // nil unless Phase is PhaseGinWin
	Turns  int
}

// OnGameEndFunc is invoked once when the game reaches a terminal phase.
type OnGameEndFunc func(g *GinGame, outcome Outcome)

// ActionPublisher receives every logged action, e.g. a Redis queue.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// GinGame holds the entire state for a single game instance in memory.
//
// The game does no locking of its own. Anything that shares a game between
// goroutines must hold Mu around every call.
type GinGame struct {
	ID         uuid.UUID
	HouseRules HouseRules
	CreatedAt  time.Time

	Players     []*Player
	Deck        *Deck
	DiscardPile []models.Card

	CurrentPlayerIndex int
	TurnID             int // increments each turn, starting at 1 after the deal
	Phase              Phase
	Winner             *Player

	awaitingDiscard  bool
	takenFromDiscard *models.Card
	actionIndex      int
	log              *logrus.Entry

	Mu sync.Mutex

	// BroadcastFn is used to send events to listeners. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// OnGameEnd is invoked at game end to record results, etc.
	OnGameEnd OnGameEndFunc

	// Publisher receives the action log. If nil, actions are not published.
	Publisher ActionPublisher
}

// NewGinGame builds an undealt game between a and b with a freshly shuffled deck.
// rng drives the shuffle; pass a seeded source for a reproducible game.
func NewGinGame(rng *rand.Rand, a, b *Player) *GinGame {
	id := uuid.New()
	return &GinGame{
		ID:          id,
		HouseRules:  DefaultHouseRules(),
		CreatedAt:   time.Now(),
		Players:     []*Player{a, b},
		Deck:        NewDeck(rng),
		DiscardPile: []models.Card{},
		Phase:       PhaseDealing,
		log:         logrus.WithField("game", id),
	}
}

// SetLogger routes the game's logs through logger.
func (g *GinGame) SetLogger(logger *logrus.Logger) {
	g.log = logger.WithField("game", g.ID)
}

// Deal gives each player HouseRules.HandSize cards, one at a time in
// alternation, and starts the first turn.
func (g *GinGame) Deal() error {
	if g.Phase != PhaseDealing {
		return ErrAlreadyDealt
	}
	if err := g.HouseRules.Validate(); err != nil {
		return err
	}

	for i := 0; i < g.HouseRules.HandSize; i++ {
		for _, p := range g.Players {
			c, err := g.Deck.Draw()
			if err != nil {
				return fmt.Errorf("deal: %w", err)
			}
			p.Hand.Add(c)
		}
	}

	g.Phase = PhaseInProgress
	g.CurrentPlayerIndex = 0
	g.TurnID = 1
	g.log.Debugf("Dealt %d cards each, %d left in stock.", g.HouseRules.HandSize, g.Deck.Len())

	g.fireEvent(GameEvent{
		Type:    EventGameDeal,
		Payload: map[string]interface{}{"stockpileSize": g.Deck.Len(), "handSize": g.HouseRules.HandSize},
	})
	hands := make(map[string]interface{}, len(g.Players))
	for _, p := range g.Players {
		hands[p.ID.String()] = p.Hand.Codes()
	}
	g.logAction(uuid.Nil, string(EventGameDeal), map[string]interface{}{"hands": hands, "deck": codesOf(g.Deck.Cards())})
	g.broadcastPlayerTurn()
	return nil
}

// Draw takes one card for playerID from the stock or the discard pile.
//
// If the stock is empty when the player comes to draw, the game ends as
// deck_exhausted and ErrEmptyDeck is returned. If the new hand is gin the
// game ends immediately and no discard is expected.
func (g *GinGame) Draw(playerID uuid.UUID, source DrawSource) (models.Card, error) {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return models.Card{}, err
	}
	if g.awaitingDiscard {
		return models.Card{}, ErrAlreadyDrawn
	}
	if g.Deck.Len() == 0 {
		g.log.Infof("Stock is empty at the start of %s's draw.", p.Name)
		g.endGame(PhaseDeckExhausted, nil)
		return models.Card{}, ErrEmptyDeck
	}

	var card models.Card
	evType := EventPlayerDrawStockpile
	switch source {
	case SourceDiscard:
		if !g.HouseRules.AllowDrawFromDiscardPile {
			return models.Card{}, ErrDiscardDrawDisallowed
		}
		if len(g.DiscardPile) == 0 {
			return models.Card{}, ErrDiscardPileEmpty
		}
		idx := len(g.DiscardPile) - 1
		card = g.DiscardPile[idx]
		g.DiscardPile = g.DiscardPile[:idx]
		taken := card
		g.takenFromDiscard = &taken
		evType = EventPlayerDrawDiscard
	default:
		card, err = g.Deck.Draw()
		if err != nil {
			g.endGame(PhaseDeckExhausted, nil)
			return models.Card{}, err
		}
		g.takenFromDiscard = nil
	}

	p.Hand.Add(card)
	g.fireEvent(GameEvent{
		Type: evType,
		User: buildEventUser(p),
		Card: buildEventCard(card),
		Hand: p.Hand.Codes(),
		Payload: map[string]interface{}{
			"stockpileSize": g.Deck.Len(),
			"discardSize":   len(g.DiscardPile),
		},
	})
	g.logAction(p.ID, string(evType), map[string]interface{}{"card": card.String(), "stockpileSize": g.Deck.Len()})

	if p.Hand.IsGin() {
		g.endGame(PhaseGinWin, p)
		return card, nil
	}
	g.awaitingDiscard = true
	return card, nil
}

// Discard moves card from playerID's hand to the discard pile and passes the
// turn. Discarding a card that is not held returns ErrCardNotFound and leaves
// the hand as it was.
func (g *GinGame) Discard(playerID uuid.UUID, card models.Card) error {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return err
	}
	if !g.awaitingDiscard {
		return ErrMustDrawFirst
	}
	if g.takenFromDiscard != nil && *g.takenFromDiscard == card {
		return ErrDiscardJustTaken
	}
	if err := p.Hand.Remove(card); err != nil {
		return err
	}

	g.DiscardPile = append(g.DiscardPile, card)
	g.awaitingDiscard = false
	g.takenFromDiscard = nil

	g.fireEvent(GameEvent{
		Type: EventPlayerDiscard,
		User: buildEventUser(p),
		Card: buildEventCard(card),
		Hand: p.Hand.Codes(),
		Payload: map[string]interface{}{
			"discardSize": len(g.DiscardPile),
		},
	})
	g.logAction(p.ID, string(EventPlayerDiscard), map[string]interface{}{"card": card.String()})

	if p.Hand.IsGin() {
		g.endGame(PhaseGinWin, p)
		return nil
	}
	g.advanceTurn()
	return nil
}

// PlayAutoTurn plays the current player's whole turn using their Strategy.
// Running out of stock is not an error: the game simply ends.
func (g *GinGame) PlayAutoTurn() error {
	if g.Phase == PhaseDealing {
		return ErrNotStarted
	}
	if g.IsOver() {
		return ErrGameOver
	}
	p := g.CurrentPlayer()
	if p.Strategy == nil {
		return fmt.Errorf("%s: %w", p.Name, ErrNoStrategy)
	}

	if !g.awaitingDiscard {
		source := p.Strategy.ChooseDrawSource(g.turnView(p))
		if _, err := g.Draw(p.ID, source); err != nil {
			if errors.Is(err, ErrEmptyDeck) {
				return nil
			}
			return err
		}
		if g.IsOver() {
			return nil
		}
	}

	card, err := p.ChooseDiscard(g.turnView(p))
	if err != nil {
		return err
	}
	if err := g.Discard(p.ID, card); err != nil {
		if errors.Is(err, ErrCardNotFound) {
			// the strategy was handed this player's own cards
			panic(fmt.Sprintf("game %s: %v", g.ID, err))
		}
		return err
	}
	return nil
}

// PlayOut plays automatic turns until the game ends.
func (g *GinGame) PlayOut() (Outcome, error) {
	for !g.IsOver() {
		if err := g.PlayAutoTurn(); err != nil {
			return g.Outcome(), err
		}
	}
	return g.Outcome(), nil
}

// SortHand orders playerID's hand by suit and rank. It can be done at any time.
func (g *GinGame) SortHand(playerID uuid.UUID) error {
	p := g.GetPlayer(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Hand.Sort()
	g.fireEvent(GameEvent{Type: EventPlayerSort, User: buildEventUser(p), Hand: p.Hand.Codes()})
	return nil
}

func (g *GinGame) Outcome() Outcome {
	return Outcome{Phase: g.Phase, Winner: g.Winner, Turns: g.TurnID}
}

func (g *GinGame) IsOver() bool {
	return g.Phase.Terminal()
}

// AwaitingDiscard reports whether the current player has drawn and must now discard.
func (g *GinGame) AwaitingDiscard() bool {
	return g.awaitingDiscard
}

func (g *GinGame) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

func (g *GinGame) GetPlayer(playerID uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// Opponent returns the other player at the table.
func (g *GinGame) Opponent(playerID uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID != playerID {
			return p
		}
	}
	return nil
}

// DiscardTop returns the top of the discard pile, or nil.
func (g *GinGame) DiscardTop() *models.Card {
	if len(g.DiscardPile) == 0 {
		return nil
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	return &top
}

// CheckInvariant verifies that stock, hands and discard pile together hold
// each of the 52 cards exactly once.
func (g *GinGame) CheckInvariant() error {
	seen := make(map[models.Card]string, 52)
	note := func(c models.Card, where string) error {
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("card %s in both %s and %s", c, prev, where)
		}
		seen[c] = where
		return nil
	}
	for _, c := range g.Deck.Cards() {
		if err := note(c, "deck"); err != nil {
			return err
		}
	}
	for _, p := range g.Players {
		for c := range p.Hand.All() {
			if err := note(c, p.Name); err != nil {
				return err
			}
		}
	}
	for _, c := range g.DiscardPile {
		if err := note(c, "discard pile"); err != nil {
			return err
		}
	}
	if len(seen) != 52 {
		return fmt.Errorf("expected 52 cards in play, found %d", len(seen))
	}
	return nil
}

// checkTurn validates that playerID may act now.
// Assumes lock is held.
func (g *GinGame) checkTurn(playerID uuid.UUID) (*Player, error) {
	switch {
	case g.Phase == PhaseDealing:
		return nil, ErrNotStarted
	case g.IsOver():
		return nil, ErrGameOver
	}
	p := g.GetPlayer(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if g.CurrentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *GinGame) turnView(p *Player) TurnView {
	return TurnView{
		Hand:             p.Hand.Cards(),
		DiscardTop:       g.DiscardTop(),
		DiscardAllowed:   g.HouseRules.AllowDrawFromDiscardPile,
		TakenFromDiscard: g.takenFromDiscard,
	}
}

// advanceTurn passes play to the other player.
// Assumes lock is held.
func (g *GinGame) advanceTurn() {
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.TurnID++
	g.broadcastPlayerTurn()
}

// broadcastPlayerTurn notifies listeners whose turn it is now.
// Assumes lock is held.
func (g *GinGame) broadcastPlayerTurn() {
	p := g.CurrentPlayer()
	g.log.Debugf("Turn %d starting for %s.", g.TurnID, p.Name)
	g.fireEvent(GameEvent{
		Type:    EventGamePlayerTurn,
		User:    buildEventUser(p),
		Payload: map[string]interface{}{"turn": g.TurnID},
	})
}

// endGame moves the game into a terminal phase exactly once.
// Assumes lock is held.
func (g *GinGame) endGame(phase Phase, winner *Player) {
	if g.IsOver() {
		return
	}
	g.Phase = phase
	g.Winner = winner
	g.awaitingDiscard = false
	g.takenFromDiscard = nil

	ev := GameEvent{
		Type:    EventGameEnd,
		User:    buildEventUser(winner),
		Payload: map[string]interface{}{"result": string(phase), "turns": g.TurnID},
	}
	if winner != nil {
		ev.Hand = winner.Hand.Codes()
		g.log.Infof("%s wins with hand: %s", winner.Name, winner.Hand)
	} else {
		g.log.Infof("Round ended in a draw after %d turns.", g.TurnID)
	}
	g.fireEvent(ev)

	actor := uuid.Nil
	if winner != nil {
		actor = winner.ID
	}
	g.logAction(actor, string(EventGameEnd), map[string]interface{}{"result": string(phase), "turns": g.TurnID})

	if g.OnGameEnd != nil {
		g.OnGameEnd(g, g.Outcome())
	}
}

func (g *GinGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// logAction numbers the action and hands it to the Publisher without blocking play.
func (g *GinGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	pub := g.Publisher
	entry := g.log
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.PublishGameAction(ctx, rec); err != nil {
			entry.Warnf("Error publishing game action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}
