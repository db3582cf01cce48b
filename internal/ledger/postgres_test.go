package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonermart/backend/internal/models"
)

func newPostgresMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS customer").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS article").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS purchase").WillReturnResult(sqlmock.NewResult(0, 0))

	ledger, err := NewPostgres(db)
	require.NoError(t, err)
	return ledger, mock
}

func TestPostgres_PurchaseSuccess(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price FROM article WHERE name = \\$1").
		WithArgs("Toner_216").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(41))
	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1 FOR UPDATE").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500))
	mock.ExpectExec("UPDATE customer SET balance = balance - \\$1 WHERE name = \\$2").
		WithArgs(int64(410), "emilie").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO purchase").
		WithArgs("emilie", "Toner_216", int64(10), int64(41)).
		WillReturnResult(sqlmock.NewResult(305, 1))
	mock.ExpectCommit()

	ok, err := ledger.Purchase(context.Background(), "emilie", "Toner_216", 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PurchaseInsufficientFunds(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price FROM article WHERE name = \\$1").
		WithArgs("Toner_159").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(47))
	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1 FOR UPDATE").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(90))
	mock.ExpectRollback()

	ok, err := ledger.Purchase(context.Background(), "emilie", "Toner_159", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PurchaseUnknownArticle(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price FROM article WHERE name = \\$1").
		WithArgs("Toner_999").
		WillReturnRows(sqlmock.NewRows([]string{"price"}))
	mock.ExpectRollback()

	_, err := ledger.Purchase(context.Background(), "emilie", "Toner_999", 1)
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "article", nf.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PurchaseRejectsBadQuantity(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	_, err := ledger.Purchase(context.Background(), "emilie", "Toner_216", 0)
	assert.ErrorIs(t, err, ErrQuantityIncorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CancelRefunds(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price FROM article WHERE name = \\$1").
		WithArgs("Toner_216").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(41))
	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1 FOR UPDATE").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(90))
	mock.ExpectQuery("SELECT id, quantity, price FROM purchase WHERE customer = \\$1 AND article = \\$2 AND NOT cancelled ORDER BY id DESC LIMIT 1 FOR UPDATE").
		WithArgs("emilie", "Toner_216").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "price"}).AddRow(305, 10, 41))
	mock.ExpectExec("UPDATE purchase SET cancelled = TRUE WHERE id = \\$1").
		WithArgs(int64(305)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customer SET balance = balance \\+ \\$1 WHERE name = \\$2").
		WithArgs(int64(410), "emilie").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ledger.Cancel(context.Background(), "emilie", "Toner_216")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CancelNothingToCancel(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price FROM article WHERE name = \\$1").
		WithArgs("Toner_216").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(41))
	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1 FOR UPDATE").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500))
	mock.ExpectQuery("SELECT id, quantity, price FROM purchase").
		WithArgs("emilie", "Toner_216").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "price"}))
	mock.ExpectRollback()

	err := ledger.Cancel(context.Background(), "emilie", "Toner_216")
	assert.ErrorIs(t, err, models.ErrNothingToCancel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_HistoryProjection(t *testing.T) {
	ledger, mock := newPostgresMock(t)
	purchased := time.Date(2014, 2, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500))
	mock.ExpectQuery("SELECT id, purchased_at, article, quantity, price FROM purchase WHERE customer = \\$1 AND NOT cancelled ORDER BY id ASC").
		WithArgs("emilie").
		WillReturnRows(sqlmock.NewRows([]string{"id", "purchased_at", "article", "quantity", "price"}).
			AddRow(54, purchased, "Toner_159", 6, 47))

	rows, err := ledger.History(context.Background(), "emilie")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(54), rows[0].PurchaseID)
	assert.Equal(t, "Toner_159", rows[0].Article)
	assert.Equal(t, int64(47), rows[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_BalanceUnknownCustomer(t *testing.T) {
	ledger, mock := newPostgresMock(t)

	mock.ExpectQuery("SELECT balance FROM customer WHERE name = \\$1").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	_, err := ledger.Balance(context.Background(), "nobody")
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "customer", nf.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
