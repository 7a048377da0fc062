package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository against a SQLite database reached
// through database/sql.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens the SQLite file named by dsn, which may carry a leading
// "sqlite:" scheme prefix (stripped if present) per DATABASE_URL.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	path := strings.TrimPrefix(dsn, "sqlite:")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying *sql.DB, used by goose to run migrations.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetAuthByUsername(ctx context.Context, username string) (Auth, error) {
	var a Auth
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM auth WHERE username = ?`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Auth{}, ErrNotFound
	}
	if err != nil {
		return Auth{}, fmt.Errorf("querying auth by username %q: %w", username, err)
	}
	return a, nil
}

func (s *SQLiteStore) GetPlayerByAuthID(ctx context.Context, authID int64) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx,
		`SELECT id, auth_id, nickname, color, best_score FROM player WHERE auth_id = ?`, authID,
	).Scan(&p.ID, &p.AuthID, &p.Nickname, &p.Color, &p.BestScore)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("querying player by auth_id %d: %w", authID, err)
	}
	return p, nil
}

func (s *SQLiteStore) TopNByBestScore(ctx context.Context, n int) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auth_id, nickname, color, best_score FROM player ORDER BY best_score DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top %d players: %w", n, err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.AuthID, &p.Nickname, &p.Color, &p.BestScore); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateBestScore is conditional: it only writes when score strictly
// exceeds the currently stored value, per the monotonicity note in the
// design notes.
func (s *SQLiteStore) UpdateBestScore(ctx context.Context, playerID int64, score int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE player SET best_score = ? WHERE id = ? AND best_score < ?`, score, playerID, score,
	)
	if err != nil {
		return fmt.Errorf("updating best score for player %d: %w", playerID, err)
	}
	return nil
}

// Register validates the username, checks uniqueness, and inserts both the
// auth and player rows inside one transaction. Callers have already hashed
// passwordHash; the alpha byte of color must already be forced opaque.
func (s *SQLiteStore) Register(ctx context.Context, username, passwordHash string, color uint32) (Player, error) {
	if username == "" || len(username) > 16 {
		return Player{}, fmt.Errorf("register: username must be 1-16 characters")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Player{}, fmt.Errorf("beginning register transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth WHERE username = ?`, username).Scan(&exists); err != nil {
		return Player{}, fmt.Errorf("checking username uniqueness: %w", err)
	}
	if exists > 0 {
		return Player{}, fmt.Errorf("register: username %q already taken", username)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO auth (username, password) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return Player{}, fmt.Errorf("inserting auth row: %w", err)
	}
	authID, err := res.LastInsertId()
	if err != nil {
		return Player{}, fmt.Errorf("reading inserted auth id: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO player (auth_id, nickname, color, best_score) VALUES (?, ?, ?, 0)`,
		authID, username, color,
	)
	if err != nil {
		return Player{}, fmt.Errorf("inserting player row: %w", err)
	}
	playerID, err := res.LastInsertId()
	if err != nil {
		return Player{}, fmt.Errorf("reading inserted player id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Player{}, fmt.Errorf("committing register transaction: %w", err)
	}

	return Player{ID: playerID, AuthID: authID, Nickname: username, Color: color, BestScore: 0}, nil
}

var _ Repository = (*SQLiteStore)(nil)
