package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"bizwars/internal/game"
)

// SQLiteStore is the single-process store used by local play. Writers are
// serialized by mu, so Mutate never needs a retry loop.
type SQLiteStore struct {
	conn *sqlx.DB
	mu   sync.Mutex
}

type gameRow struct {
	OwnerID   string `db:"owner_id"`
	State     string `db:"state"`
	UpdatedAt int64  `db:"updated_at"`
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			owner_id     TEXT PRIMARY KEY,
			game_id      TEXT NOT NULL,
			company_name TEXT NOT NULL,
			current_week INTEGER NOT NULL,
			is_game_over INTEGER NOT NULL DEFAULT 0,
			outcome      TEXT NOT NULL,
			state        TEXT NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_finished ON games(is_game_over, updated_at)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			owner_id   TEXT NOT NULL,
			key        TEXT NOT NULL,
			action     TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (owner_id, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerID string) (*game.Game, error) {
	var row gameRow
	err := s.conn.GetContext(ctx, &row, `SELECT owner_id, state, updated_at FROM games WHERE owner_id = ?`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrGameNotFound
		}
		return nil, err
	}
	return decodeGame([]byte(row.State))
}

func (s *SQLiteStore) Replace(ctx context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := saveGameSQLite(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Mutate(ctx context.Context, ownerID, idempotencyKey, action string, fn func(*game.Game) error) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if key := strings.TrimSpace(idempotencyKey); key != "" {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO idempotency_keys (owner_id, key, action, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (owner_id, key) DO NOTHING
		`, ownerID, key, action, time.Now().UTC().UnixMilli())
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, game.ErrDuplicateIdempotency
		}
	}

	var row gameRow
	if err := tx.GetContext(ctx, &row, `SELECT owner_id, state, updated_at FROM games WHERE owner_id = ?`, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrGameNotFound
		}
		return nil, err
	}
	g, err := decodeGame([]byte(row.State))
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := saveGameSQLite(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM games WHERE owner_id = ?`, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

func (s *SQLiteStore) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := before.UTC().UnixMilli()
	res, err := s.conn.ExecContext(ctx, `DELETE FROM games WHERE is_game_over = 1 AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < ?`, cutoff); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func saveGameSQLite(ctx context.Context, tx *sqlx.Tx, g *game.Game) error {
	raw, err := encodeGame(g)
	if err != nil {
		return err
	}
	over := 0
	if g.IsGameOver {
		over = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (owner_id, game_id, company_name, current_week, is_game_over, outcome, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			game_id = excluded.game_id,
			company_name = excluded.company_name,
			current_week = excluded.current_week,
			is_game_over = excluded.is_game_over,
			outcome = excluded.outcome,
			state = excluded.state,
			updated_at = excluded.updated_at
	`, g.OwnerID, g.ID, g.CompanyName, g.CurrentWeek, over, string(g.Outcome), string(raw), g.UpdatedAt.UTC().UnixMilli())
	return err
}
