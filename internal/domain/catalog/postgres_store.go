package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore persists the product catalog in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the products table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       INTEGER NOT NULL,
			stock       INTEGER NOT NULL DEFAULT 0,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`)
	return err
}

const productColumns = "id, name, description, price, stock, is_active, image_url, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns products, optionally restricted to active ones.
func (s *PostgresStore) List(ctx context.Context, onlyActive bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if onlyActive {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get returns one product by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// Snapshot returns current product data for the given IDs. Products not in
// the catalog are simply absent from the result, never an error.
func (s *PostgresStore) Snapshot(ctx context.Context, ids []string) (Snapshot, error) {
	if len(ids) == 0 {
		return Snapshot{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := make(Snapshot, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		snap[p.ID] = p
	}
	return snap, rows.Err()
}

// Create inserts a new product. A missing ID is generated.
func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, stock, is_active, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.IsActive, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update replaces the mutable fields of an existing product.
func (s *PostgresStore) Update(ctx context.Context, p Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, stock = $5, is_active = $6, image_url = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.IsActive, p.ImageURL, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock atomically reserves stock for an order line. It fails with
// ErrInsufficientStock when the remaining stock cannot cover the quantity.
func (s *PostgresStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $2, updated_at = $3
		 WHERE id = $1 AND is_active AND stock >= $2`,
		productID, quantity, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}

// RestoreStock returns previously reserved stock, compensating a failed
// multi-line reservation.
func (s *PostgresStore) RestoreStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", quantity)
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1",
		productID, quantity, time.Now())
	return err
}
