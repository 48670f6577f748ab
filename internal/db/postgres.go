package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bizwars/internal/game"
)

var postgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS bizwars`,
	`CREATE TABLE IF NOT EXISTS bizwars.games (
		owner_id     TEXT PRIMARY KEY,
		game_id      UUID NOT NULL UNIQUE,
		company_name TEXT NOT NULL,
		current_week INTEGER NOT NULL,
		is_game_over BOOLEAN NOT NULL DEFAULT false,
		outcome      TEXT NOT NULL,
		state        JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_finished ON bizwars.games (is_game_over, updated_at)`,
	`CREATE TABLE IF NOT EXISTS bizwars.idempotency_keys (
		owner_id   TEXT NOT NULL,
		key        TEXT NOT NULL,
		action     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner_id, key)
	)`,
}

// PostgresStore keeps one game row per owner with the full state as jsonb.
// Mutations run in serializable transactions and are retried on conflict.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string) (*game.Game, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT state FROM bizwars.games WHERE owner_id = $1
	`, ownerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrGameNotFound
		}
		return nil, err
	}
	return decodeGame(raw)
}

func (s *PostgresStore) Replace(ctx context.Context, g *game.Game) error {
	return s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		return saveGameTx(ctx, tx, g)
	})
}

func (s *PostgresStore) Mutate(ctx context.Context, ownerID, idempotencyKey, action string, fn func(*game.Game) error) (*game.Game, error) {
	var out *game.Game
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if strings.TrimSpace(idempotencyKey) != "" {
			if err := claimIdempotency(ctx, tx, ownerID, idempotencyKey, action); err != nil {
				return err
			}
		}
		var raw []byte
		if err := tx.QueryRow(ctx, `
			SELECT state FROM bizwars.games
			WHERE owner_id = $1
			FOR UPDATE
		`, ownerID).Scan(&raw); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return game.ErrGameNotFound
			}
			return err
		}
		g, err := decodeGame(raw)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		if err := saveGameTx(ctx, tx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM bizwars.games WHERE owner_id = $1`, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

func (s *PostgresStore) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			DELETE FROM bizwars.games
			WHERE is_game_over AND updated_at < $1
		`, before)
		if err != nil {
			return err
		}
		purged = cmd.RowsAffected()
		_, err = tx.Exec(ctx, `DELETE FROM bizwars.idempotency_keys WHERE created_at < $1`, before)
		return err
	})
	return purged, err
}

func (s *PostgresStore) withSerializableTx(ctx context.Context, fn func(pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return game.ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return game.ErrTxConflict
}

func saveGameTx(ctx context.Context, tx pgx.Tx, g *game.Game) error {
	raw, err := encodeGame(g)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO bizwars.games (owner_id, game_id, company_name, current_week, is_game_over, outcome, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id) DO UPDATE SET
			game_id = EXCLUDED.game_id,
			company_name = EXCLUDED.company_name,
			current_week = EXCLUDED.current_week,
			is_game_over = EXCLUDED.is_game_over,
			outcome = EXCLUDED.outcome,
			state = EXCLUDED.state,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, g.OwnerID, g.ID, g.CompanyName, g.CurrentWeek, g.IsGameOver, string(g.Outcome), raw, g.CreatedAt, g.UpdatedAt)
	return err
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, ownerID, key, action string) error {
	cmd, err := tx.Exec(ctx, `
		INSERT INTO bizwars.idempotency_keys (owner_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (owner_id, key) DO NOTHING
	`, ownerID, strings.TrimSpace(key), action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return game.ErrDuplicateIdempotency
	}
	return nil
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
