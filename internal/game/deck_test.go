package game

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/ginrummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, d.Len())

	seen := make(map[models.Card]bool)
	perSuit := make(map[models.Suit]int)
	perRank := make(map[models.Rank]int)
	for _, c := range d.Cards() {
		require.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
		perSuit[c.Suit]++
		perRank[c.Rank]++
	}
	assert.Len(t, perSuit, 4)
	assert.Len(t, perRank, 13)
	for s, n := range perSuit {
		assert.Equal(t, 13, n, "suit %s", s)
	}
	for r, n := range perRank {
		assert.Equal(t, 4, n, "rank %d", r)
	}
}

func TestDeckDraw(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(2)))
	before := d.Len()
	top := d.Cards()[before-1]

	c, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, top, c, "draw takes the top card")
	assert.Equal(t, before-1, d.Len())
	assert.False(t, d.Contains(c))
}

func TestDeckDrawEmpty(t *testing.T) {
	d := NewDeck(nil)
	for i := 0; i < 52; i++ {
		_, err := d.Draw()
		require.NoError(t, err)
	}
	assert.Equal(t, 0, d.Len())

	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.Equal(t, 0, d.Len())
}

func TestDeckShuffleIsSeeded(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(42)))
	b := NewDeck(rand.New(rand.NewSource(42)))
	c := NewDeck(rand.New(rand.NewSource(43)))
	assert.Equal(t, a.Cards(), b.Cards())
	assert.NotEqual(t, a.Cards(), c.Cards())
}
