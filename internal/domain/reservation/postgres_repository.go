package reservation

import (
	"context"
	"database/sql"
)

// PostgresRepository stores reservations in PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the reservations table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reservations (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			date       TIMESTAMPTZ NOT NULL,
			party_size INTEGER NOT NULL,
			note       TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

const reservationColumns = "id, user_id, name, date, party_size, note, status, created_at"

func scanReservation(row interface{ Scan(...any) error }) (*Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.Name, &res.Date, &res.PartySize, &res.Note, &res.Status, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, res *Reservation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (id, user_id, name, date, party_size, note, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, res.UserID, res.Name, res.Date, res.PartySize, res.Note, res.Status, res.CreatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = $1", id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id = $1 ORDER BY date", userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationColumns+" FROM reservations ORDER BY date")
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
