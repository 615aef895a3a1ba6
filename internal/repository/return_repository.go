package repository

import (
	"context"
	"fmt"
	"time"

	"bulkmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const returnColumns = `id, order_id, order_number, product_id, product_name, product_image, quantity,
	price, seller_id, seller_name, customer_email, customer_name, reason, description, status,
	created_at, updated_at`

// returnRepository implements the ReturnRepository interface using PostgreSQL.
type returnRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReturnRepository creates a new PostgreSQL-backed return request repository.
func NewReturnRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReturnRepository {
	return &returnRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "return").Logger(),
	}
}

// Create stores a new return request. A missing ID or timestamp is filled in.
func (r *returnRepository) Create(ctx context.Context, req *model.ReturnRequest) (string, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = model.ReturnStatusPending
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	query := `
		INSERT INTO return_requests (` + returnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.OrderID, req.OrderNumber, req.ProductID, req.ProductName, req.ProductImage, req.Quantity,
		req.Price, req.SellerID, req.SellerName, req.CustomerEmail, req.CustomerName, string(req.Reason),
		req.Description, string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", req.OrderID).
			Str("product_id", req.ProductID).
			Msg("failed to create return request")
		return "", fmt.Errorf("failed to create return request: %w", err)
	}

	r.logger.Info().
		Str("return_id", req.ID).
		Str("order_id", req.OrderID).
		Msg("return request created")

	return req.ID, nil
}

// ListForUser retrieves a customer's return requests, newest first.
func (r *returnRepository) ListForUser(ctx context.Context, email string) ([]model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE customer_email = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("failed to query return requests")
		return nil, fmt.Errorf("failed to query return requests: %w", err)
	}
	return r.collect(rows)
}

// ListForOrder retrieves the return requests raised against one order.
func (r *returnRepository) ListForOrder(ctx context.Context, orderID string) ([]model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE order_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to query return requests")
		return nil, fmt.Errorf("failed to query return requests: %w", err)
	}
	return r.collect(rows)
}

// GetByID retrieves a return request by its ID.
func (r *returnRepository) GetByID(ctx context.Context, id string) (*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE id = $1`

	req, err := scanReturn(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("return_id", id).Msg("return request not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("return_id", id).Msg("failed to query return request")
		return nil, fmt.Errorf("failed to query return request: %w", err)
	}

	return &req, nil
}

// UpdateStatus moves a return request from one status to another. The row is
// only changed while it still has status from; otherwise the result is
// ErrInvalidTransition, or ErrReturnNotFound when the row does not exist.
func (r *returnRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReturnStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE return_requests SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("return_id", id).Msg("failed to update return status")
		return fmt.Errorf("failed to update return status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM return_requests WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update return status: %w", err)
		}
		if !exists {
			return model.ErrReturnNotFound
		}
		r.logger.Warn().
			Str("return_id", id).
			Str("expected", string(from)).
			Msg("return status changed concurrently")
		return model.ErrInvalidTransition
	}

	r.logger.Info().Str("return_id", id).Str("status", string(to)).Msg("return status updated")
	return nil
}

func (r *returnRepository) collect(rows pgx.Rows) ([]model.ReturnRequest, error) {
	defer rows.Close()

	requests := []model.ReturnRequest{}
	for rows.Next() {
		req, err := scanReturn(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan return request row")
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating return request rows")
		return nil, fmt.Errorf("error iterating return requests: %w", err)
	}

	return requests, nil
}

func scanReturn(row pgx.Row) (model.ReturnRequest, error) {
	var (
		req            model.ReturnRequest
		reason, status string
	)
	err := row.Scan(&req.ID, &req.OrderID, &req.OrderNumber, &req.ProductID, &req.ProductName,
		&req.ProductImage, &req.Quantity, &req.Price, &req.SellerID, &req.SellerName,
		&req.CustomerEmail, &req.CustomerName, &reason, &req.Description, &status,
		&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return model.ReturnRequest{}, err
	}
	req.Reason = model.ReturnReason(reason)
	req.Status = model.ReturnStatus(status)
	return req, nil
}
