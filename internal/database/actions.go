// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/ginrummy/internal/cache"
)

// endActionType is logged by a game as its final action.
const endActionType = "game_end"

// InsertActions writes a batch of action records in a single transaction.
// Each record upserts its game row first, and a game_end record closes the game.
// Records already stored are skipped, so a replayed batch is harmless.
func (s *Store) InsertActions(ctx context.Context, batch []cache.GameActionRecord) error {
	if len(batch) == 0 {
		return nil
	}
	return s.beginTxFunc(ctx, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertGameActionTx: %w", err)
			}
		}
		return nil
	})
}

// CountActions returns how many actions are archived for gameID.
func (s *Store) CountActions(ctx context.Context, gameID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM game_actions WHERE game_id = $1`, gameID).Scan(&n)
	return n, err
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status)
		VALUES ($1, 'in_progress')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorID != uuid.Nil {
		actor = &rec.ActorID
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	if rec.ActionType == endActionType {
		status := StatusExhausted
		if result, _ := rec.ActionPayload["result"].(string); result == "gin_win" {
			status = StatusCompleted
		}
		finalizeQ := `
			UPDATE games
			SET status = $2, end_time = COALESCE(end_time, NOW())
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID, status); err != nil {
			return err
		}
	}
	return nil
}
