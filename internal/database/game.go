// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusExhausted  = "exhausted"
	StatusAbandoned  = "abandoned"
)

// GameResult is the archived summary of one finished game.
type GameResult struct {
	GameID     uuid.UUID
	Status     string // StatusCompleted for a gin win, StatusExhausted for a draw
	WinnerName string // empty when nobody won
	Turns      int
	FinalHands map[string][]string // player name -> card codes
}

// GameRow is a games row as read back from the archive.
type GameRow struct {
	ID         uuid.UUID
	Status     string
	WinnerName string
	Turns      int
	FinalHands map[string][]string
	StartTime  time.Time
	EndTime    *time.Time
}

// RecordGameResult upserts the games row for a finished game.
func (s *Store) RecordGameResult(ctx context.Context, res GameResult) error {
	hands, err := json.Marshal(res.FinalHands)
	if err != nil {
		return fmt.Errorf("failed to marshal final hands: %w", err)
	}
	var winner *string
	if res.WinnerName != "" {
		winner = &res.WinnerName
	}

	err = s.beginTxFunc(ctx, func(tx pgx.Tx) error {
		q := `
			INSERT INTO games (id, status, winner_name, turns, final_hands, end_time)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status,
				winner_name = EXCLUDED.winner_name,
				turns = EXCLUDED.turns,
				final_hands = EXCLUDED.final_hands,
				end_time = EXCLUDED.end_time
		`
		_, e := tx.Exec(ctx, q, res.GameID, res.Status, winner, res.Turns, hands)
		return e
	})
	if err != nil {
		return fmt.Errorf("tx upsert game result: %w", err)
	}
	return nil
}

// MarkAbandoned marks a game as abandoned if it was still in progress.
// It reports whether a row changed.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var changed bool
	err := s.beginTxFunc(ctx, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		tag, e := tx.Exec(ctx, q, gameID)
		changed = tag.RowsAffected() > 0
		return e
	})
	if err != nil {
		return false, fmt.Errorf("mark game %v abandoned: %w", gameID, err)
	}
	return changed, nil
}

// GetGame reads one archived game.
func (s *Store) GetGame(ctx context.Context, gameID uuid.UUID) (*GameRow, error) {
	var (
		row    GameRow
		winner *string
		hands  []byte
	)
	q := `
		SELECT id, status, winner_name, turns, final_hands, start_time, end_time
		FROM games WHERE id = $1
	`
	err := s.pool.QueryRow(ctx, q, gameID).Scan(
		&row.ID, &row.Status, &winner, &row.Turns, &hands, &row.StartTime, &row.EndTime,
	)
	if err != nil {
		return nil, fmt.Errorf("get game %v: %w", gameID, err)
	}
	if winner != nil {
		row.WinnerName = *winner
	}
	if len(hands) > 0 {
		if err := json.Unmarshal(hands, &row.FinalHands); err != nil {
			return nil, fmt.Errorf("decode final hands: %w", err)
		}
	}
	return &row, nil
}
