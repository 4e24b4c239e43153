package game

import (
	"testing"

	"github.com/jason-s-yu/ginrummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cards parses card codes, failing the test on a bad code.
func cards(t *testing.T, codes ...string) []models.Card {
	t.Helper()
	out := make([]models.Card, len(codes))
	for i, code := range codes {
		c, err := models.ParseCard(code)
		require.NoError(t, err, code)
		out[i] = c
	}
	return out
}

func TestHandAddRemove(t *testing.T) {
	h := NewHand()
	qh := cards(t, "QH")[0]

	assert.True(t, h.Add(qh))
	assert.False(t, h.Add(qh), "duplicate add is refused")
	assert.Equal(t, 1, h.Len())

	require.NoError(t, h.Remove(qh))
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Contains(qh))
}

func TestHandRemoveMissingDoesNotMutate(t *testing.T) {
	h := NewHand(cards(t, "2C", "3D", "4H")...)
	before := h.Cards()

	err := h.Remove(cards(t, "KS")[0])
	require.ErrorIs(t, err, ErrCardNotFound)
	assert.Equal(t, before, h.Cards())
}

func TestHandAllIsRestartable(t *testing.T) {
	h := NewHand(cards(t, "AS", "10D", "7C")...)

	var first, second []string
	for c := range h.All() {
		first = append(first, c.String())
	}
	for c := range h.All() {
		second = append(second, c.String())
	}
	assert.Equal(t, []string{"AS", "10D", "7C"}, first)
	assert.Equal(t, first, second)

	// stopping early is fine
	for c := range h.All() {
		assert.Equal(t, "AS", c.String())
		break
	}
}

func TestHandTextRoundTrip(t *testing.T) {
	h := NewHand(cards(t, "AS", "10D", "7C", "KH", "2C")...)
	text := h.String()
	assert.Equal(t, "AS 10D 7C KH 2C", text)

	parsed, err := ParseHand(text)
	require.NoError(t, err)
	assert.ElementsMatch(t, h.Cards(), parsed.Cards())
	assert.Equal(t, h.Cards(), parsed.Cards())
}

func TestParseHandErrors(t *testing.T) {
	_, err := ParseHand("AS KZ")
	assert.ErrorIs(t, err, models.ErrInvalidSuit)

	_, err = ParseHand("AS AS")
	assert.Error(t, err)

	h, err := ParseHand("   ")
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestHandSort(t *testing.T) {
	h := NewHand(cards(t, "KS", "2H", "AC", "10C", "3D")...)
	h.Sort()
	assert.Equal(t, "AC 10C 3D 2H KS", h.String())
}

func TestIsGin(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		gin   bool
	}{
		{"set and runs", []string{"7C", "7D", "7H", "2S", "3S", "4S", "5S", "9H", "10H", "JH"}, true},
		{"eleven cards", []string{"7C", "7D", "7H", "2S", "3S", "4S", "5S", "9H", "10H", "JH", "QH"}, true},
		{"one stray card", []string{"7C", "7D", "7H", "2S", "3S", "4S", "5S", "9H", "10H", "KD"}, false},
		{"ace is low", []string{"AD", "2D", "3D"}, true},
		{"no wrap around", []string{"QD", "KD", "AD"}, false},
		{"pair is not a set", []string{"9C", "9D"}, false},
		{"broken run", []string{"2C", "3C", "5C", "6C", "7C"}, false},
		{"two runs in one suit", []string{"2C", "3C", "4C", "6C", "7C", "8C"}, true},
		{"empty hand", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHand(cards(t, tt.codes...)...)
			assert.Equal(t, tt.gin, h.IsGin())
		})
	}
}

// Sets are taken greedily before runs, so the order cards arrived in can
// decide which four-of-a-kind card is left for a run.
func TestIsGinIsGreedy(t *testing.T) {
	spoiled := NewHand(cards(t, "4H", "4D", "4C", "4S", "5H", "6H")...)
	assert.False(t, spoiled.IsGin())
	assert.ElementsMatch(t, cards(t, "4S", "5H", "6H"), spoiled.Deadwood())

	lucky := NewHand(cards(t, "4S", "4D", "4C", "4H", "5H", "6H")...)
	assert.True(t, lucky.IsGin())
	assert.Len(t, lucky.Melds(), 2)
}

func TestMeldsAndDeadwood(t *testing.T) {
	h := NewHand(cards(t, "7C", "7D", "7H", "2S", "3S", "4S", "KD")...)
	melds := h.Melds()
	require.Len(t, melds, 2)
	assert.Equal(t, cards(t, "7C", "7D", "7H"), melds[0])
	assert.Equal(t, cards(t, "2S", "3S", "4S"), melds[1])
	assert.Equal(t, cards(t, "KD"), h.Deadwood())
}
