package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRank = errors.New("invalid rank")
	ErrInvalidSuit = errors.New("invalid suit")
	ErrInvalidCard = errors.New("invalid card")
)

// Suit is one of the four French suits, stored as its single-letter code.
type Suit string

const (
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Hearts   Suit = "H"
	Spades   Suit = "S"
)

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace   Rank = 1
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var suitNames = map[Suit]string{
	Clubs:    "Clubs",
	Diamonds: "Diamonds",
	Hearts:   "Hearts",
	Spades:   "Spades",
}

var rankNames = map[Rank]string{
	Ace:   "Ace",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
}

// AllSuits returns the suits in deck-building order.
func AllSuits() []Suit {
	return []Suit{Clubs, Diamonds, Hearts, Spades}
}

// AllRanks returns Ace through King.
func AllRanks() []Rank {
	ranks := make([]Rank, 0, 13)
	for r := Ace; r <= King; r++ {
		ranks = append(ranks, r)
	}
	return ranks
}

func (s Suit) Valid() bool {
	_, ok := suitNames[s]
	return ok
}

// Name returns the suit's English name, e.g. "Hearts".
func (s Suit) Name() string {
	return suitNames[s]
}

func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Code is the short rank code used in card codes: A, 2..10, J, Q, K.
func (r Rank) Code() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

// Name returns the rank's English name, e.g. "Queen" or "7".
func (r Rank) Name() string {
	if n, ok := rankNames[r]; ok {
		return n
	}
	return strconv.Itoa(int(r))
}

// Card is a single playing card. Cards are plain values: equal rank and suit
// means the same card, so a Card can be used directly as a map key.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard validates rank and suit.
func NewCard(rank Rank, suit Suit) (Card, error) {
	if !rank.Valid() {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidRank, int(rank))
	}
	if !suit.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidSuit, string(suit))
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// String returns the short code, e.g. "AC", "10H", "QS".
func (c Card) String() string {
	return c.Rank.Code() + string(c.Suit)
}

// Name returns the long form, e.g. "10 of Hearts".
func (c Card) Name() string {
	return c.Rank.Name() + " of " + c.Suit.Name()
}

// ParseCard accepts either a short code ("10h", "QS") or a long name
// ("Queen of Spades").
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(strings.ToLower(s), " of ") {
		return parseCardName(s)
	}
	s = strings.ToUpper(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	suit := Suit(s[len(s)-1:])
	rank, err := parseRankCode(s[:len(s)-1])
	if err != nil {
		return Card{}, err
	}
	return NewCard(rank, suit)
}

func parseRankCode(code string) (Rank, error) {
	switch code {
	case "A":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	// only the canonical digits; Atoi alone would take "+5" and "05"
	v, err := strconv.Atoi(code)
	if err != nil || v < 2 || v > 10 || strconv.Itoa(v) != code {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRank, code)
	}
	return Rank(v), nil
}

func parseCardName(s string) (Card, error) {
	parts := strings.SplitN(s, " of ", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(strings.ToLower(s), " of ", 2)
	}
	if len(parts) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rankPart := strings.TrimSpace(parts[0])
	suitPart := strings.TrimSpace(parts[1])

	var rank Rank
	for r, n := range rankNames {
		if strings.EqualFold(n, rankPart) {
			rank = r
		}
	}
	if rank == 0 {
		r, err := parseRankCode(strings.ToUpper(rankPart))
		if err != nil {
			return Card{}, err
		}
		rank = r
	}

	var suit Suit
	for st, n := range suitNames {
		if strings.EqualFold(n, suitPart) {
			suit = st
		}
	}
	if suit == "" {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidSuit, suitPart)
	}
	return NewCard(rank, suit)
}
