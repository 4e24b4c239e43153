package models

// GameAction captures a player's in-game move as sent by a websocket client.
// Payload carries action-specific fields, e.g. "card": "QH" or "source": "discard".
type GameAction struct {
	ActionType string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

const (
	ActionDraw    = "action_draw"
	ActionDiscard = "action_discard"
	ActionSort    = "action_sort"
	ActionPing    = "ping"
)

// PayloadString returns a string field from the payload, or "" if missing or not a string.
func (a GameAction) PayloadString(key string) string {
	if a.Payload == nil {
		return ""
	}
	s, _ := a.Payload[key].(string)
	return s
}
