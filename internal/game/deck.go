package game

import (
	"math/rand"
	"time"

	"github.com/jason-s-yu/ginrummy/internal/models"
)

// Deck is the shuffled stock. The top of the deck is the end of the slice.
type Deck struct {
	cards []models.Card
}

// NewDeck builds the 52 rank x suit cards and shuffles them once with rng.
// A nil rng falls back to a time-seeded source.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cards := make([]models.Card, 0, 52)
	for _, s := range models.AllSuits() {
		for _, r := range models.AllRanks() {
			cards = append(cards, models.Card{Rank: r, Suit: s})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (models.Card, error) {
	if len(d.cards) == 0 {
		return models.Card{}, ErrEmptyDeck
	}
	idx := len(d.cards) - 1
	c := d.cards[idx]
	d.cards = d.cards[:idx]
	return c, nil
}

func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, top last.
func (d *Deck) Cards() []models.Card {
	out := make([]models.Card, len(d.cards))
	copy(out, d.cards)
	return out
}

func (d *Deck) Contains(c models.Card) bool {
	for _, dc := range d.cards {
		if dc == c {
			return true
		}
	}
	return false
}
