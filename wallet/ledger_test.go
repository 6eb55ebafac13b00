package wallet

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestGetReturnsWallet(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 42, 5000, 1000, "USD"))

	wallet, err := ledger.Get(42)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), wallet.Balance)
	assert.Equal(t, int64(1000), wallet.HoldBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingWallet(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := ledger.Get(42)
	var notFound *utils.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestHoldMovesBalanceConditionally(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ledger.Hold(gdb, 42, 1000)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldInsufficientBalance(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	// The guarded update touches zero rows when balance < amount.
	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.Hold(gdb, 42, 999999)
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "insufficient balance in patient wallet", err.Error())
}

func TestReleaseHoldRequiresSufficientHold(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.ReleaseHold(gdb, 42, 1000)
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
}

func TestDebitRejectsOverdraft(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.Debit(gdb, 42, 100)
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
}

func TestTopUpCreditsAndRecordsPayment(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := ledger.TopUp(42, 2500, "USD", "TXN-abc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUpMissingWallet(t *testing.T) {
	gdb, mock := newTestDB(t)
	ledger := NewLedger(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ledger.TopUp(42, 2500, "USD", "TXN-abc")
	var notFound *utils.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTopUpValidation(t *testing.T) {
	gdb, _ := newTestDB(t)
	ledger := NewLedger(gdb)

	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, ledger.TopUp(42, 0, "USD", "TXN-abc"), &badRequest)
	assert.ErrorAs(t, ledger.TopUp(42, 100, "USD", ""), &badRequest)
}
