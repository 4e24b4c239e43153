// cmd/simulate/main.go plays one game between two random players and prints the turn trace.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jason-s-yu/ginrummy/internal/config"
	"github.com/jason-s-yu/ginrummy/internal/game"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.Fatal(err)
	}

	seed := flag.Int64("seed", cfg.GameSeed, "random seed (0 = time based)")
	handSize := flag.Int("hand-size", cfg.HandSize, "cards dealt to each player")
	discardDraws := flag.Bool("discard-draws", cfg.AllowDiscardDraw, "allow drawing from the discard pile")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rules := game.HouseRules{HandSize: *handSize, AllowDrawFromDiscardPile: *discardDraws}
	if err := simulate(os.Stdout, logger, *seed, rules); err != nil {
		logger.Fatal(err)
	}
}

// simulate plays a full game and writes one line per event to out.
func simulate(out io.Writer, logger *logrus.Logger, seed int64, rules game.HouseRules) error {
	rng := rand.New(rand.NewSource(seed))
	a := game.NewPlayer("A", game.NewRandomStrategy(rand.New(rand.NewSource(rng.Int63()))))
	b := game.NewPlayer("B", game.NewRandomStrategy(rand.New(rand.NewSource(rng.Int63()))))

	g := game.NewGinGame(rng, a, b)
	g.HouseRules = rules
	g.SetLogger(logger)
	g.BroadcastFn = func(ev game.GameEvent) {
		if line := traceLine(g, ev); line != "" {
			fmt.Fprintln(out, line)
		}
	}
	logger.Debugf("Simulating game %s with seed %d.", g.ID, seed)

	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.Deal(); err != nil {
		return err
	}
	for _, p := range g.Players {
		fmt.Fprintf(out, "%s's hand: %s\n", p.Name, p.Hand)
	}
	_, err := g.PlayOut()
	return err
}

// traceLine renders one event, or "" for events the trace leaves out.
// Assumes lock is held.
func traceLine(g *game.GinGame, ev game.GameEvent) string {
	name := ""
	if ev.User != nil {
		name = ev.User.Name
	}
	switch ev.Type {
	case game.EventGameDeal:
		return fmt.Sprintf("Dealt %d cards each; %d left in the deck.", g.HouseRules.HandSize, g.Deck.Len())
	case game.EventPlayerDrawStockpile:
		return fmt.Sprintf("%s draws %s from the deck. Hand: %s", name, ev.Card.Code, strings.Join(ev.Hand, " "))
	case game.EventPlayerDrawDiscard:
		return fmt.Sprintf("%s takes %s from the discard pile. Hand: %s", name, ev.Card.Code, strings.Join(ev.Hand, " "))
	case game.EventPlayerDiscard:
		return fmt.Sprintf("%s discards %s. Hand: %s", name, ev.Card.Code, strings.Join(ev.Hand, " "))
	case game.EventGameEnd:
		if ev.User != nil {
			return fmt.Sprintf("%s wins with hand: %s", name, strings.Join(ev.Hand, " "))
		}
		return "Round ended in a draw (deck exhausted)."
	}
	return ""
}
