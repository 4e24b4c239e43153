// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventGameDeal            GameEventType = "game_deal"
	EventGamePlayerTurn      GameEventType = "game_player_turn"
	EventPlayerDrawStockpile GameEventType = "player_draw_stockpile"
	EventPlayerDrawDiscard   GameEventType = "player_draw_discardpile"
	EventPlayerDiscard       GameEventType = "player_discard"
	EventPlayerSort          GameEventType = "player_sort"
	EventGameEnd             GameEventType = "game_end"
)

// EventUser identifies the acting player.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// EventCard is a card as it appears in event payloads.
type EventCard struct {
	Code string `json:"code"`
	Rank int    `json:"rank"`
	Suit string `json:"suit"`
	Name string `json:"name"`
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type GameEventType `json:"type"`
	User *EventUser    `json:"user,omitempty"`
	Card *EventCard    `json:"card,omitempty"`

	// Hand is the acting player's hand after the event, as card codes.
	Hand []string `json:"hand,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

func buildEventCard(c models.Card) *EventCard {
	return &EventCard{
		Code: c.String(),
		Rank: int(c.Rank),
		Suit: string(c.Suit),
		Name: c.Name(),
	}
}

func buildEventUser(p *Player) *EventUser {
	if p == nil {
		return nil
	}
	return &EventUser{ID: p.ID, Name: p.Name}
}
