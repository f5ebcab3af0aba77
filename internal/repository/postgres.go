package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petstoreapp/order-service/db"
	"github.com/petstoreapp/order-service/internal/domain/order"
)

const (
	upsertOrderSQL = `INSERT INTO orders (id, email, items, status, complete)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			items = EXCLUDED.items,
			status = EXCLUDED.status,
			complete = EXCLUDED.complete,
			updated_at = now()`

	getOrderSQL = `SELECT email, items, status, complete FROM orders WHERE id = $1`
)

// NewPool creates a pgxpool.Pool for the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

var _ OrderRepository = (*PostgresRepository)(nil)

// PostgresRepository implements OrderRepository backed by PostgreSQL. Line
// items are serialized to JSON for storage in the JSONB column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a PostgresRepository that uses the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get returns the order stored under id, or order.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	o := order.New(id)

	var (
		itemsJSON []byte
		status    string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).
		Scan(&o.Email, &itemsJSON, &status, &o.Complete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling items of order %q: %w", id, err)
	}
	if o.Items == nil {
		o.Items = []order.LineItem{}
	}
	return o, nil
}

// Upsert inserts the order or replaces the full record under its ID.
func (r *PostgresRepository) Upsert(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, upsertOrderSQL,
		o.ID, o.Email, itemsJSON, string(o.Status), o.Complete,
	)
	if err != nil {
		return fmt.Errorf("upserting order %q: %w", o.ID, err)
	}
	return nil
}
