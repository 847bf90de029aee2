package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/quickcart/quickcart/internal/entity"
)

// Open connects to Postgres and runs the schema migration.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1,
			total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// PostgresProductStore is a ProductStore backed by Postgres. The conditional
// update in Swap relies on a version column, so it needs no row locks.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

func (s *PostgresProductStore) Get(ctx context.Context, id int64) (entity.Product, error) {
	var p entity.Product
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, category, price, stock, version FROM products WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Product{}, ErrNotFound
	}
	if err != nil {
		return entity.Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (s *PostgresProductStore) List(ctx context.Context) ([]entity.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, category, price, stock, version FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Version); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) Put(ctx context.Context, p entity.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, category, price, stock, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			version = products.version + 1`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresProductStore) Swap(ctx context.Context, p entity.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, category = $4, price = $5, stock = $6, version = version + 1
		WHERE id = $1 AND version = $7`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the row vanished or a concurrent writer bumped the version.
		if _, err := s.Get(ctx, p.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// PostgresOrderStore is an OrderStore backed by Postgres.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Get(ctx context.Context, id string) (entity.Order, error) {
	var o entity.Order
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, product_id, product_name, unit_price, quantity, total_amount, status, created_at FROM orders WHERE id = $1",
		id,
	).Scan(&o.ID, &o.ProductID, &o.ProductName, &o.UnitPrice, &o.Quantity, &o.TotalAmount, &status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Order{}, ErrNotFound
	}
	if err != nil {
		return entity.Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	o.Status = entity.OrderStatus(status)
	return o, nil
}

func (s *PostgresOrderStore) Put(ctx context.Context, o entity.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, product_id, product_name, unit_price, quantity, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		o.ID, o.ProductID, o.ProductName, o.UnitPrice, o.Quantity, o.TotalAmount, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresOrderStore) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, product_id, product_name, unit_price, quantity, total_amount, status, created_at FROM orders ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var o entity.Order
		var status string
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.UnitPrice, &o.Quantity, &o.TotalAmount, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = entity.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
