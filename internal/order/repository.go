package order

import (
	"context"
	"database/sql"
	"trelis-pay/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	FindByTransactionRef(ctx context.Context, ref string) (*Order, error)
	SetTransactionRef(ctx context.Context, orderID uint, ref string) error
	AppendNote(ctx context.Context, orderID uint, note string) error
	MarkPaidAndFulfill(ctx context.Context, orderID uint) error
	MarkFailed(ctx context.Context, orderID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	query := `
		SELECT id, external_id, status, total_amount, currency, transaction_ref, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.ExternalID, &o.Status, &o.TotalAmount,
		&o.Currency, &o.TransactionRef, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// FindByTransactionRef resolves a processor payment reference to its order.
// A reference should map to exactly one order; if more than one row matches,
// the lowest id wins deterministically and the anomaly is logged.
func (r *repository) FindByTransactionRef(ctx context.Context, ref string) (*Order, error) {
	query := `
		SELECT id, external_id, status, total_amount, currency, transaction_ref, created_at, updated_at
		FROM orders
		WHERE transaction_ref = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.ExternalID, &o.Status, &o.TotalAmount,
			&o.Currency, &o.TransactionRef, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, ErrOrderNotFound
	}
	if len(matches) > 1 {
		logger.FromCtx(ctx).Warn("multiple orders share a transaction reference, taking lowest id",
			zap.String("transaction_ref", ref),
			zap.Int("matches", len(matches)),
			zap.Uint("order_id", matches[0].ID),
		)
	}

	return matches[0], nil
}

// SetTransactionRef stores the payment reference, set-once. A second write
// for the same order fails with ErrRefAlreadySet.
func (r *repository) SetTransactionRef(ctx context.Context, orderID uint, ref string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET transaction_ref = $2, updated_at = now()
		WHERE id = $1 AND transaction_ref IS NULL
	`, orderID, ref)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRefAlreadySet
	}
	return nil
}

func (r *repository) AppendNote(ctx context.Context, orderID uint, note string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_notes (order_id, note) VALUES ($1, $2)
	`, orderID, note)
	return err
}

// MarkPaidAndFulfill settles the order and decrements stock in one
// transaction. The status update is conditional on the order not being
// settled yet, so two concurrent deliveries cannot both fulfill: the loser
// sees zero affected rows and gets ErrAlreadyProcessed.
func (r *repository) MarkPaidAndFulfill(ctx context.Context, orderID uint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'PROCESSING', updated_at = now()
		WHERE id = $1 AND status NOT IN ('PROCESSING', 'COMPLETED')
	`, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyProcessed
	}

	// Decrement stock for every line item; the stock guard keeps any item
	// row from going negative.
	res, err = tx.ExecContext(ctx, `
		UPDATE products p SET stock = p.stock - oi.quantity
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id AND p.stock >= oi.quantity
	`, orderID)
	if err != nil {
		return err
	}
	reduced, err := res.RowsAffected()
	if err != nil {
		return err
	}

	var itemCount int64
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM order_items WHERE order_id = $1
	`, orderID).Scan(&itemCount)
	if err != nil {
		return err
	}
	if reduced != itemCount {
		return ErrInsufficientStock
	}

	return tx.Commit()
}

// MarkFailed records a failed payment, guarded the same way so a failure
// event can never regress an order that already settled.
func (r *repository) MarkFailed(ctx context.Context, orderID uint) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = 'FAILED', updated_at = now()
		WHERE id = $1 AND status NOT IN ('PROCESSING', 'COMPLETED')
	`, orderID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
