package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTransactionDebit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`join product_revisions pr`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(300))

	total, err := store.TransactionDebit(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, int64(300), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionDebitBounded(t *testing.T) {
	store, mock := newMockStore(t)
	until := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`t.created_at <= \$2`).
		WithArgs(1, until).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120))

	total, err := store.TransactionDebit(context.Background(), 1, &until)
	require.NoError(t, err)
	require.Equal(t, int64(120), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferCredit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`from transfers`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(-150))

	total, err := store.TransferCredit(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, int64(-150), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFineDebit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`from fines`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50))

	total, err := store.FineDebit(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, int64(50), total)
	require.NoError(t, mock.ExpectationsWereMet())
}
