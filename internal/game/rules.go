// internal/game/rules.go
package game

import "fmt"

const (
	DefaultHandSize = 10
	MaxHandSize     = 25
)

// HouseRules defines the table options for one game.
type HouseRules struct {
	HandSize                 int  `json:"handSize"`                 // cards dealt to each player
	AllowDrawFromDiscardPile bool `json:"allowDrawFromDiscardPile"` // allow taking the top discard instead of the stock
}

// DefaultHouseRules deals ten cards each and only allows drawing from the stock.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		HandSize:                 DefaultHandSize,
		AllowDrawFromDiscardPile: false,
	}
}

// Validate checks that both hands can be dealt from one deck.
func (rules HouseRules) Validate() error {
	if rules.HandSize < 1 || rules.HandSize > MaxHandSize {
		return fmt.Errorf("handSize must be between 1 and %d", MaxHandSize)
	}
	return nil
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	if val, exists := newRules["allowDrawFromDiscardPile"]; exists && val != nil {
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for allowDrawFromDiscardPile")
		}
		rules.AllowDrawFromDiscardPile = b
	}

	if val, exists := newRules["handSize"]; exists && val != nil {
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			rules.HandSize = int(v)
		case int:
			rules.HandSize = v
		default:
			return fmt.Errorf("invalid type for handSize")
		}
	}

	return rules.Validate()
}

// ParseRules converts a map of rules to a HouseRules struct. It will ensure the types are valid.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
