package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/cafe-storefront/internal/domain/cart"
)

// PostgresCartStore persists carts in PostgreSQL, one row per user holding
// the full serialized cart. Each save upserts the whole cart.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

// EnsureSchema creates the carts table if it does not exist.
func (s *PostgresCartStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS carts (
			user_id    TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

func (s *PostgresCartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM carts WHERE user_id = $1", userID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return cart.New(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(userID, data), nil
}

func (s *PostgresCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := encodeCart(c)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO carts (user_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		c.UserID, data, time.Now())
	return err
}

func (s *PostgresCartStore) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE user_id = $1", userID)
	return err
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
