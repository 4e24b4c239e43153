package main

import (
	"strings"
	"testing"

	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateTrace(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var out strings.Builder
	require.NoError(t, simulate(&out, logger, 3, game.DefaultHouseRules()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "Dealt 10 cards each; 32 left in the deck.", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A's hand: "))
	assert.True(t, strings.HasPrefix(lines[2], "B's hand: "))
	assert.True(t, strings.HasPrefix(lines[3], "A draws "))

	last := lines[len(lines)-1]
	assert.True(t, strings.Contains(last, " wins with hand: ") || last == "Round ended in a draw (deck exhausted).", last)
}

func TestSimulateIsReproducible(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rules := game.DefaultHouseRules()
	rules.AllowDrawFromDiscardPile = true

	var first, second strings.Builder
	require.NoError(t, simulate(&first, logger, 77, rules))
	require.NoError(t, simulate(&second, logger, 77, rules))
	assert.Equal(t, first.String(), second.String())
}

func TestSimulateRejectsBadRules(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var out strings.Builder
	assert.Error(t, simulate(&out, logger, 1, game.HouseRules{HandSize: 0}))
}
