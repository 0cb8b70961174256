package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionManager_WithinTransaction(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		manager := NewGormTransactionManager(db.DB)
		err := manager.WithinTransaction(context.Background(), func(ctx context.Context) error {
			require.NotNil(t, txFromContext(ctx))
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		manager := NewGormTransactionManager(db.DB)
		err := manager.WithinTransaction(context.Background(), func(ctx context.Context) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call reuses the outer transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		// A single begin/commit pair even though WithinTransaction nests
		mock.ExpectBegin()
		mock.ExpectCommit()

		manager := NewGormTransactionManager(db.DB)
		err := manager.WithinTransaction(context.Background(), func(outer context.Context) error {
			outerTx := txFromContext(outer)
			return manager.WithinTransaction(outer, func(inner context.Context) error {
				assert.Equal(t, outerTx, txFromContext(inner))
				return nil
			})
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repositories resolve the transactional handle from context", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE code = \$1`).
			WithArgs("CUST001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectCommit()

		repo := NewGormCustomerRepository(db.DB)
		manager := NewGormTransactionManager(db.DB)

		err := manager.WithinTransaction(context.Background(), func(ctx context.Context) error {
			_, err := repo.ExistsByCode(ctx, "CUST001")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("dbFromContext falls back without a transaction", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		resolved := dbFromContext(context.Background(), db.DB)
		assert.Equal(t, db.DB, resolved)
	})
}
