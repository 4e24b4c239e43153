package game

import "errors"

var (
	// ErrEmptyDeck is returned when drawing from an exhausted stock. It is an
	// expected way for a game to end, not a failure.
	ErrEmptyDeck = errors.New("deck is empty")

	// ErrCardNotFound is returned when removing a card the hand does not hold.
	ErrCardNotFound = errors.New("card not in hand")

	ErrGameOver              = errors.New("game is over")
	ErrNotStarted            = errors.New("game has not been dealt")
	ErrAlreadyDealt          = errors.New("game has already been dealt")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrAlreadyDrawn          = errors.New("already drew this turn")
	ErrMustDrawFirst         = errors.New("must draw before discarding")
	ErrDiscardDrawDisallowed = errors.New("drawing from the discard pile is not allowed")
	ErrDiscardPileEmpty      = errors.New("discard pile is empty")
	ErrDiscardJustTaken      = errors.New("cannot discard the card just taken from the discard pile")
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrNoStrategy            = errors.New("player has no strategy")
)
