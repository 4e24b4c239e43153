package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

// DrawSource says where a player takes their card from.
type DrawSource string

const (
	SourceStock   DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// ParseDrawSource maps a query value to a DrawSource; anything unknown is the stock.
func ParseDrawSource(s string) DrawSource {
	if DrawSource(s) == SourceDiscard {
		return SourceDiscard
	}
	return SourceStock
}

// TurnView is what a strategy may look at when choosing.
type TurnView struct {
	Hand             []models.Card
	DiscardTop       *models.Card
	DiscardAllowed   bool
	TakenFromDiscard *models.Card // set when the card just drawn came off the discard pile
}

// Strategy decides a computer player's moves.
type Strategy interface {
	ChooseDrawSource(view TurnView) DrawSource
	ChooseDiscard(view TurnView) models.Card
}

// RandomStrategy plays uniformly random legal moves with no lookahead.
type RandomStrategy struct {
	rng *rand.Rand
}

func NewRandomStrategy(rng *rand.Rand) *RandomStrategy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomStrategy{rng: rng}
}

// ChooseDrawSource flips a coin between stock and discard pile when the pile
// may be drawn from, and otherwise takes from the stock.
func (s *RandomStrategy) ChooseDrawSource(view TurnView) DrawSource {
	if view.DiscardAllowed && view.DiscardTop != nil && s.rng.Intn(2) == 0 {
		return SourceDiscard
	}
	return SourceStock
}

// ChooseDiscard picks any held card except one just taken from the discard pile.
func (s *RandomStrategy) ChooseDiscard(view TurnView) models.Card {
	options := make([]models.Card, 0, len(view.Hand))
	for _, c := range view.Hand {
		if view.TakenFromDiscard != nil && c == *view.TakenFromDiscard {
			continue
		}
		options = append(options, c)
	}
	return options[s.rng.Intn(len(options))]
}

// Player owns one Hand. A nil Strategy marks a human seat.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Hand     *Hand     `json:"-"`
	Strategy Strategy  `json:"-"`
}

func NewPlayer(name string, strategy Strategy) *Player {
	return &Player{
		ID:       uuid.New(),
		Name:     name,
		Hand:     NewHand(),
		Strategy: strategy,
	}
}

func (p *Player) IsComputer() bool {
	return p.Strategy != nil
}

// ChooseDiscard asks the player's strategy which card to throw away.
func (p *Player) ChooseDiscard(view TurnView) (models.Card, error) {
	if p.Strategy == nil {
		return models.Card{}, ErrNoStrategy
	}
	return p.Strategy.ChooseDiscard(view), nil
}
