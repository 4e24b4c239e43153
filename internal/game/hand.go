package game

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/jason-s-yu/ginrummy/internal/models"
)

// Hand is the set of cards one player holds, kept in the order the cards
// arrived so that rendering is stable.
type Hand struct {
	cards []models.Card
}

func NewHand(cards ...models.Card) *Hand {
	h := &Hand{cards: make([]models.Card, 0, 11)}
	for _, c := range cards {
		h.Add(c)
	}
	return h
}

// ParseHand reads the space separated card codes produced by Hand.String.
func ParseHand(text string) (*Hand, error) {
	h := NewHand()
	for _, field := range strings.Fields(text) {
		c, err := models.ParseCard(field)
		if err != nil {
			return nil, fmt.Errorf("parse hand: %w", err)
		}
		if !h.Add(c) {
			return nil, fmt.Errorf("parse hand: duplicate card %s", c)
		}
	}
	return h, nil
}

// Add inserts c. It returns false and leaves the hand untouched if c is
// already held.
func (h *Hand) Add(c models.Card) bool {
	if h.Contains(c) {
		return false
	}
	h.cards = append(h.cards, c)
	return true
}

// Remove deletes c, or returns ErrCardNotFound without modifying the hand.
func (h *Hand) Remove(c models.Card) error {
	idx := slices.Index(h.cards, c)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, c)
	}
	h.cards = slices.Delete(h.cards, idx, idx+1)
	return nil
}

func (h *Hand) Contains(c models.Card) bool {
	return slices.Contains(h.cards, c)
}

func (h *Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the held cards.
func (h *Hand) Cards() []models.Card {
	return slices.Clone(h.cards)
}

// All yields the held cards in display order. Each call starts a fresh pass.
func (h *Hand) All() iter.Seq[models.Card] {
	return func(yield func(models.Card) bool) {
		for _, c := range h.cards {
			if !yield(c) {
				return
			}
		}
	}
}

// Sort orders the hand by suit, then rank.
func (h *Hand) Sort() {
	slices.SortStableFunc(h.cards, func(a, b models.Card) int {
		if c := cmp.Compare(a.Suit, b.Suit); c != 0 {
			return c
		}
		return cmp.Compare(a.Rank, b.Rank)
	})
}

func (h *Hand) String() string {
	codes := make([]string, 0, len(h.cards))
	for c := range h.All() {
		codes = append(codes, c.String())
	}
	return strings.Join(codes, " ")
}

// Codes returns the short code of every held card.
func (h *Hand) Codes() []string {
	return codesOf(h.cards)
}

// IsGin reports whether every card in a non-empty hand falls into a group
// found by groupMelds.
//
// This is a placeholder for the model's win condition, not real Gin Rummy:
// the grouping is greedy and there is no deadwood point count or knocking.
func (h *Hand) IsGin() bool {
	if len(h.cards) == 0 {
		return false
	}
	_, deadwood := groupMelds(h.cards)
	return len(deadwood) == 0
}

func (h *Hand) Melds() [][]models.Card {
	melds, _ := groupMelds(h.cards)
	return melds
}

func (h *Hand) Deadwood() []models.Card {
	_, deadwood := groupMelds(h.cards)
	return deadwood
}

// groupMelds takes sets first and runs second:
//   - for each rank (in order of first appearance) with three or more cards,
//     the first three cards of that rank form a set;
//   - of what remains, each suit (in order of first appearance) is sorted by
//     rank and every stretch of three or more consecutive ranks is a run.
//
// Whatever is left is deadwood.
func groupMelds(cards []models.Card) (melds [][]models.Card, deadwood []models.Card) {
	remaining := slices.Clone(cards)

	var rankOrder []models.Rank
	byRank := make(map[models.Rank][]models.Card)
	for _, c := range remaining {
		if _, seen := byRank[c.Rank]; !seen {
			rankOrder = append(rankOrder, c.Rank)
		}
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	for _, r := range rankOrder {
		group := byRank[r]
		if len(group) < 3 {
			continue
		}
		set := slices.Clone(group[:3])
		melds = append(melds, set)
		remaining = without(remaining, set)
	}

	var suitOrder []models.Suit
	bySuit := make(map[models.Suit][]models.Card)
	for _, c := range remaining {
		if _, seen := bySuit[c.Suit]; !seen {
			suitOrder = append(suitOrder, c.Suit)
		}
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for _, s := range suitOrder {
		suited := bySuit[s]
		slices.SortStableFunc(suited, func(a, b models.Card) int {
			return cmp.Compare(a.Rank, b.Rank)
		})
		var run []models.Card
		var last models.Rank
		for _, c := range suited {
			if len(run) == 0 || c.Rank == last+1 {
				run = append(run, c)
			} else {
				if len(run) >= 3 {
					melds = append(melds, run)
					remaining = without(remaining, run)
				}
				run = []models.Card{c}
			}
			last = c.Rank
		}
		if len(run) >= 3 {
			melds = append(melds, run)
			remaining = without(remaining, run)
		}
	}

	return melds, remaining
}

func without(cards []models.Card, drop []models.Card) []models.Card {
	return slices.DeleteFunc(cards, func(c models.Card) bool {
		return slices.Contains(drop, c)
	})
}

func codesOf(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
