package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "external_id", "status", "total_amount", "currency",
		"transaction_ref", "created_at", "updated_at",
	})
}

func TestRepository_FindByTransactionRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	ref := "pay_123"

	query := `SELECT id, external_id, .* FROM orders WHERE transaction_ref = \$1 ORDER BY id ASC`

	t.Run("Success", func(t *testing.T) {
		rows := orderRows(t).AddRow(
			1, "ext-1", "PENDING", 100.0, "USD", ref, time.Now(), time.Now(),
		)

		mock.ExpectQuery(query).WithArgs(ref).WillReturnRows(rows)

		ord, err := repo.FindByTransactionRef(ctx, ref)
		assert.NoError(t, err)
		assert.Equal(t, uint(1), ord.ID)
		assert.Equal(t, StatusPending, ord.Status)
		require.NotNil(t, ord.TransactionRef)
		assert.Equal(t, ref, *ord.TransactionRef)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("pay_unknown").WillReturnRows(orderRows(t))

		_, err := repo.FindByTransactionRef(ctx, "pay_unknown")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("MultipleMatchesTakesLowestID", func(t *testing.T) {
		rows := orderRows(t).
			AddRow(3, "ext-3", "PENDING", 100.0, "USD", ref, time.Now(), time.Now()).
			AddRow(7, "ext-7", "PENDING", 100.0, "USD", ref, time.Now(), time.Now())

		mock.ExpectQuery(query).WithArgs(ref).WillReturnRows(rows)

		ord, err := repo.FindByTransactionRef(ctx, ref)
		assert.NoError(t, err)
		assert.Equal(t, uint(3), ord.ID)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ref).WillReturnError(errors.New("db error"))

		_, err := repo.FindByTransactionRef(ctx, ref)
		assert.Error(t, err)
	})
}

func TestRepository_SetTransactionRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	query := `UPDATE orders SET transaction_ref = \$2, updated_at = now\(\) WHERE id = \$1 AND transaction_ref IS NULL`

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(uint(1), "pay_123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetTransactionRef(ctx, 1, "pay_123")
		assert.NoError(t, err)
	})

	t.Run("AlreadySet", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(uint(1), "pay_456").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetTransactionRef(ctx, 1, "pay_456")
		assert.ErrorIs(t, err, ErrRefAlreadySet)
	})
}

func TestRepository_AppendNote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO order_notes \(order_id, note\) VALUES \(\$1, \$2\)`).
		WithArgs(uint(1), "Payment complete!").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.AppendNote(ctx, 1, "Payment complete!")
	assert.NoError(t, err)
}

func TestRepository_MarkPaidAndFulfill(t *testing.T) {
	ctx := context.Background()

	statusUpdate := `UPDATE orders SET status = 'PROCESSING', updated_at = now\(\) WHERE id = \$1 AND status NOT IN \('PROCESSING', 'COMPLETED'\)`
	stockUpdate := `UPDATE products p SET stock = p.stock - oi.quantity FROM order_items oi WHERE oi.order_id = \$1 AND p.id = oi.product_id AND p.stock >= oi.quantity`
	itemCount := `SELECT COUNT\(\*\) FROM order_items WHERE order_id = \$1`

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(statusUpdate).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockUpdate).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery(itemCount).WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectCommit()

		err = repo.MarkPaidAndFulfill(ctx, 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyProcessed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(statusUpdate).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.MarkPaidAndFulfill(ctx, 1)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(statusUpdate).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		// Only one of two items had stock, so the transaction rolls back.
		mock.ExpectExec(stockUpdate).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(itemCount).WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectRollback()

		err = repo.MarkPaidAndFulfill(ctx, 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(statusUpdate).WithArgs(uint(1)).WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		err = repo.MarkPaidAndFulfill(ctx, 1)
		assert.Error(t, err)
	})
}

func TestRepository_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	query := `UPDATE orders SET status = 'FAILED', updated_at = now\(\) WHERE id = \$1 AND status NOT IN \('PROCESSING', 'COMPLETED'\)`

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkFailed(ctx, 1)
		assert.NoError(t, err)
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		// A settled order never regresses to FAILED.
		mock.ExpectExec(query).WithArgs(uint(1)).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkFailed(ctx, 1)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})
}

func TestRepository_GetOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	query := `SELECT id, external_id, .* FROM orders WHERE id = \$1`

	t.Run("Success", func(t *testing.T) {
		rows := orderRows(t).AddRow(
			1, "ext-1", "PENDING", 250.5, "EUR", nil, time.Now(), time.Now(),
		)
		mock.ExpectQuery(query).WithArgs(uint(1)).WillReturnRows(rows)

		ord, err := repo.GetOrder(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, "EUR", ord.Currency)
		assert.Nil(t, ord.TransactionRef)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uint(99)).WillReturnRows(orderRows(t))

		_, err := repo.GetOrder(ctx, 99)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
