package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dan9191/mortgage-service/internal/models"
)

const schema = `
	CREATE SCHEMA IF NOT EXISTS mortgage;
	CREATE TABLE IF NOT EXISTS mortgage.orders (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		phone       TEXT NOT NULL,
		data        JSONB NOT NULL,
		result_data JSONB NOT NULL,
		hmac        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the orders table when it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateOrder stores an order. Contact fields are expected to be encrypted already.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order.Data)
	if err != nil {
		return fmt.Errorf("failed to encode loan data: %w", err)
	}
	result, err := json.Marshal(order.ResultData)
	if err != nil {
		return fmt.Errorf("failed to encode loan result: %w", err)
	}

	query := `
		INSERT INTO mortgage.orders (name, email, phone, data, result_data, hmac, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query,
		order.Form.Name, order.Form.Email, order.Form.Phone, string(data), string(result), order.HMAC).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ListOrders returns the most recent orders, newest first
func (r *Repository) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	query := `
		SELECT id, name, email, phone, data, result_data, hmac, created_at
		FROM mortgage.orders
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o            models.Order
			data, result []byte
		)
		if err := rows.Scan(&o.ID, &o.Form.Name, &o.Form.Email, &o.Form.Phone, &data, &result, &o.HMAC, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(data, &o.Data); err != nil {
			return nil, fmt.Errorf("failed to decode loan data of order %d: %w", o.ID, err)
		}
		if err := json.Unmarshal(result, &o.ResultData); err != nil {
			return nil, fmt.Errorf("failed to decode loan result of order %d: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
