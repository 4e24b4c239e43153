// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

// ViewCard is a card as shown to a viewer.
type ViewCard struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PlayerState is one seat from the perspective of the requesting player.
// Hand is only filled for the viewer's own seat, or for everyone once the
// game is over.
type PlayerState struct {
	PlayerID      uuid.UUID  `json:"player_id"`
	Name          string     `json:"name"`
	Computer      bool       `json:"computer"`
	HandSize      int        `json:"hand_size"`
	IsCurrentTurn bool       `json:"isCurrentTurn"`
	Hand          []ViewCard `json:"hand,omitempty"`
}

// GameState is returned by GetGameState and is all a front-end needs to render the table.
type GameState struct {
	GameID          uuid.UUID     `json:"game_id"`
	Phase           Phase         `json:"phase"`
	GameOver        bool          `json:"gameOver"`
	TurnID          int           `json:"turn"`
	CurrentPlayerID uuid.UUID     `json:"currentPlayerId"`
	AwaitingDiscard bool          `json:"awaitingDiscard"`
	StockpileSize   int           `json:"stockpileSize"`
	DiscardSize     int           `json:"discardSize"`
	DiscardTop      *ViewCard     `json:"discardTop,omitempty"`
	DiscardAllowed  bool          `json:"discardDrawAllowed"`
	Players         []PlayerState `json:"players"`
	WinnerID        *uuid.UUID    `json:"winnerId,omitempty"`
	WinnerName      string        `json:"winnerName,omitempty"`
}

// GetGameState generates a snapshot of the game for the requesting player.
// Assumes lock is held.
func (g *GinGame) GetGameState(forPlayer uuid.UUID) GameState {
	st := GameState{
		GameID:          g.ID,
		Phase:           g.Phase,
		GameOver:        g.IsOver(),
		TurnID:          g.TurnID,
		CurrentPlayerID: g.CurrentPlayer().ID,
		AwaitingDiscard: g.awaitingDiscard,
		StockpileSize:   g.Deck.Len(),
		DiscardSize:     len(g.DiscardPile),
		DiscardAllowed:  g.HouseRules.AllowDrawFromDiscardPile,
	}
	if top := g.DiscardTop(); top != nil {
		vc := toViewCard(*top)
		st.DiscardTop = &vc
	}
	if g.Winner != nil {
		id := g.Winner.ID
		st.WinnerID = &id
		st.WinnerName = g.Winner.Name
	}

	for i, p := range g.Players {
		ps := PlayerState{
			PlayerID:      p.ID,
			Name:          p.Name,
			Computer:      p.IsComputer(),
			HandSize:      p.Hand.Len(),
			IsCurrentTurn: i == g.CurrentPlayerIndex && !st.GameOver,
		}
		if p.ID == forPlayer || st.GameOver {
			for c := range p.Hand.All() {
				ps.Hand = append(ps.Hand, toViewCard(c))
			}
		}
		st.Players = append(st.Players, ps)
	}
	return st
}

func toViewCard(c models.Card) ViewCard {
	return ViewCard{Code: c.String(), Name: c.Name()}
}
