package source

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

func january(t *testing.T) report.Period {
	t.Helper()
	p, err := report.ParsePeriod("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	return p
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var paymentColumns = []string{
	"id", "payment_date", "class_name", "member_name", "description",
	"amount_cents", "phone_number", "remaining_sessions", "status",
}

func TestMemberRowsMock(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(memberRowsQuery)).
		WithArgs("2024-01-01", "2024-01-31").
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow(int64(1), "2024-01-05", "Renang Dasar", "Budi", "Paket 8x", int64(40000000), "0812", int64(6), "in_progress").
			AddRow(int64(2), "2024-01-09", "Renang Lanjut", "Ani", "", int64(25000050), "", int64(0), "completed"))

	rows, err := store.MemberRows(context.Background(), january(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, day(5), rows[0].PaymentDate)
	assert.Equal(t, "Budi", rows[0].MemberName)
	assert.True(t, rows[0].Amount.Equal(types.MoneyFromInt(400000)))
	assert.Equal(t, types.StatusInProgress, rows[0].Status)
	assert.Equal(t, "250000.5", rows[1].Amount.String())
	assert.Equal(t, types.StatusCompleted, rows[1].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRowsMockBadStatus(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(memberRowsQuery)).
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow(int64(7), "2024-01-05", "A", "Budi", "", int64(100), "", int64(0), "paused"))

	_, err := store.MemberRows(context.Background(), january(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment 7")
	assert.Equal(t, validation.KindValidation, validation.KindOf(err))
}

func TestMemberRowsMockQueryError(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(memberRowsQuery)).WillReturnError(errors.New("disk I/O error"))

	_, err := store.MemberRows(context.Background(), january(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query payments")
	assert.False(t, validation.IsInputError(err))
}

func TestFinancialInputMock(t *testing.T) {
	store, mock := newMock(t)

	sum := func(cents int64) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"total"}).AddRow(cents)
	}
	mock.ExpectQuery(regexp.QuoteMeta(incomeTotalQuery)).WithArgs("2024-01-01", "2024-01-31").WillReturnRows(sum(500000000))
	mock.ExpectQuery(regexp.QuoteMeta(expenseTotalQuery)).WithArgs("2024-01-01", "2024-01-31").WillReturnRows(sum(510000000))
	mock.ExpectQuery(regexp.QuoteMeta(receivablesQuery)).WithArgs("2024-01-31").WillReturnRows(sum(7500000))
	mock.ExpectQuery(regexp.QuoteMeta(incomeBreakdownQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"class_name", "total"}).AddRow("Renang Dasar", int64(500000000)))
	mock.ExpectQuery(regexp.QuoteMeta(expenseBreakdownQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total"}))

	in, err := store.FinancialInput(context.Background(), january(t))
	require.NoError(t, err)

	assert.True(t, in.Summary.TotalIncome.Equal(types.MoneyFromInt(5000000)))
	assert.True(t, in.Summary.NetProfit.Equal(types.MoneyFromInt(-100000)))
	assert.True(t, in.Summary.Receivables.Equal(types.MoneyFromInt(75000)))
	require.Len(t, in.Income, 1)
	assert.Equal(t, "Renang Dasar", in.Income[0].Name)
	assert.NotNil(t, in.Expense)
	assert.Empty(t, in.Expense)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRowsRollsBack(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertPaymentQuery))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	rows := []types.ReportRow{
		{PaymentDate: day(1), MemberName: "Budi", Amount: types.MoneyFromInt(1), Status: types.StatusCompleted},
		{PaymentDate: day(2), MemberName: "Ani", Amount: types.MoneyFromInt(1), Status: types.StatusCompleted},
	}
	_, err := store.ImportRows(context.Background(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert payment 2")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBatchRollsBackAcrossTables(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(insertPaymentQuery)).
		ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(insertExpenseQuery)).
		ExpectExec().
		WithArgs("2024-01-10", "Sewa Kolam", "", int64(60000050)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err := store.Import(context.Background(), Batch{
		Payments: []types.ReportRow{{PaymentDate: day(1), MemberName: "Budi", Amount: types.MoneyFromInt(1), Status: types.StatusCompleted}},
		Expenses: []types.Expense{{Date: day(10), Category: "Sewa Kolam", Amount: types.MoneyFromCents(60000050)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert expense 1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "payments.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	rows := []types.ReportRow{
		{PaymentDate: day(5), ClassName: "Renang Dasar", MemberName: "Budi", Amount: types.MoneyFromInt(400000),
			PhoneNumber: "081234567890", RemainingSessions: 6, Status: types.StatusInProgress},
		{PaymentDate: day(3), ClassName: "Renang Lanjut", MemberName: "Ani", Amount: types.MoneyFromInt(250000),
			Status: types.StatusCompleted},
		{PaymentDate: day(6), ClassName: "Renang Dasar", MemberName: "Sari", Amount: types.MoneyFromInt(350000),
			Status: types.StatusCompleted},
		{PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ClassName: "Renang Dasar", MemberName: "Dewi",
			Amount: types.MoneyFromInt(999), Status: types.StatusCompleted},
	}
	n, err := store.Import(ctx, Batch{
		Payments: rows,
		Expenses: []types.Expense{
			{Date: day(10), Category: "Sewa Kolam", Amount: types.MoneyFromInt(600000)},
			{Date: day(11), Category: "Pelatih", Amount: types.MoneyFromInt(300000)},
			{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Category: "Pelatih", Amount: types.MoneyFromInt(5)},
		},
		Receivables: []types.Receivable{
			{MemberName: "Budi", DueDate: day(20), Amount: types.MoneyFromInt(50000)},
			{MemberName: "Ani", DueDate: day(20), Amount: types.MoneyFromInt(1), Settled: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	got, err := store.MemberRows(ctx, january(t))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Ani", "Budi", "Sari"}, []string{got[0].MemberName, got[1].MemberName, got[2].MemberName})
	assert.Equal(t, "081234567890", got[1].PhoneNumber)

	in, err := store.FinancialInput(ctx, january(t))
	require.NoError(t, err)
	assert.True(t, in.Summary.TotalIncome.Equal(types.MoneyFromInt(1000000)))
	assert.True(t, in.Summary.TotalExpense.Equal(types.MoneyFromInt(900000)))
	assert.True(t, in.Summary.NetProfit.Equal(types.MoneyFromInt(100000)))
	assert.True(t, in.Summary.Receivables.Equal(types.MoneyFromInt(50000)))

	require.Len(t, in.Income, 2)
	assert.Equal(t, "Renang Dasar", in.Income[0].Name)
	assert.True(t, in.Income[0].Amount.Equal(types.MoneyFromInt(750000)))
	require.Len(t, in.Expense, 2)
	assert.Equal(t, "Sewa Kolam", in.Expense[0].Name)

	// Reopening runs migrations again without error.
	again, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
