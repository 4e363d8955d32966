// =============================================================================
// Report Export - SQLite Payments Store
// =============================================================================
//
// The store keeps member payments, expenses and receivables in a SQLite file
// and answers the two questions the exporter asks of it:
//   - Which payments fall inside a reporting period (member workbook)
//   - What the period's totals and breakdowns are (financial report)
//
// Amounts are stored as integer cents so SQL aggregates stay exact. Dates are
// stored as "2006-01-02" text, which orders and compares correctly.
//
// =============================================================================

package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

const dateLayout = "2006-01-02"

// =============================================================================
// QUERIES
// =============================================================================

const (
	memberRowsQuery = `SELECT id, payment_date, class_name, member_name, description,
       amount_cents, phone_number, remaining_sessions, status
FROM payments
WHERE payment_date BETWEEN ? AND ?
ORDER BY payment_date, id`

	incomeTotalQuery = `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE payment_date BETWEEN ? AND ?`

	expenseTotalQuery = `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE expense_date BETWEEN ? AND ?`

	receivablesQuery = `SELECT COALESCE(SUM(amount_cents), 0) FROM receivables WHERE settled = 0 AND due_date <= ?`

	incomeBreakdownQuery = `SELECT class_name, SUM(amount_cents) AS total
FROM payments
WHERE payment_date BETWEEN ? AND ?
GROUP BY class_name
ORDER BY total DESC, class_name`

	expenseBreakdownQuery = `SELECT category, SUM(amount_cents) AS total
FROM expenses
WHERE expense_date BETWEEN ? AND ?
GROUP BY category
ORDER BY total DESC, category`

	insertPaymentQuery = `INSERT INTO payments (payment_date, class_name, member_name, description,
       amount_cents, phone_number, remaining_sessions, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertExpenseQuery = `INSERT INTO expenses (expense_date, category, description, amount_cents) VALUES (?, ?, ?, ?)`

	insertReceivableQuery = `INSERT INTO receivables (member_name, due_date, amount_cents, settled) VALUES (?, ?, ?, ?)`
)

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the payments database.
type Store struct {
	db *sql.DB
}

// New wraps an open database. The schema is assumed to be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("path", dbPath).Msg("payments store opened")

	return New(db), nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemberRows returns the payments recorded within period, oldest first.
//
// RETURNS:
//   - The rows, never nil.
//   - A *validation.ValidationError if a stored row carries an unknown
//     status; other errors for query failures.
func (s *Store) MemberRows(ctx context.Context, period report.Period) ([]types.ReportRow, error) {
	start, end := periodArgs(period)

	rows, err := s.db.QueryContext(ctx, memberRowsQuery, start, end)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	result := make([]types.ReportRow, 0)
	for rows.Next() {
		var (
			id                     int64
			date, status           string
			amountCents, remaining int64
			row                    types.ReportRow
		)
		if err := rows.Scan(&id, &date, &row.ClassName, &row.MemberName, &row.Description,
			&amountCents, &row.PhoneNumber, &remaining, &status); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}

		if row.PaymentDate, err = validation.ParseDate("payment_date", date); err != nil {
			return nil, fmt.Errorf("payment %d: %w", id, err)
		}
		if row.Status, err = types.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("payment %d: %w", id, err)
		}
		row.Amount = types.MoneyFromCents(amountCents)
		row.RemainingSessions = int(remaining)

		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("rows", len(result)).Str("start", start).Str("end", end).Msg("payments loaded")

	return result, nil
}

// FinancialInput computes the totals and breakdowns for period. Receivables
// are the unsettled amounts due on or before the period's end.
func (s *Store) FinancialInput(ctx context.Context, period report.Period) (report.FinancialInput, error) {
	var in report.FinancialInput
	start, end := periodArgs(period)

	totals := []struct {
		name  string
		query string
		args  []any
		dst   *types.Money
	}{
		{"income", incomeTotalQuery, []any{start, end}, &in.Summary.TotalIncome},
		{"expense", expenseTotalQuery, []any{start, end}, &in.Summary.TotalExpense},
		{"receivables", receivablesQuery, []any{end}, &in.Summary.Receivables},
	}
	for _, t := range totals {
		var cents int64
		if err := s.db.QueryRowContext(ctx, t.query, t.args...).Scan(&cents); err != nil {
			return in, fmt.Errorf("sum %s: %w", t.name, err)
		}
		*t.dst = types.MoneyFromCents(cents)
	}
	in.Summary.NetProfit = in.Summary.TotalIncome.Sub(in.Summary.TotalExpense)

	var err error
	if in.Income, err = s.breakdown(ctx, incomeBreakdownQuery, start, end); err != nil {
		return in, fmt.Errorf("income breakdown: %w", err)
	}
	if in.Expense, err = s.breakdown(ctx, expenseBreakdownQuery, start, end); err != nil {
		return in, fmt.Errorf("expense breakdown: %w", err)
	}

	return in, nil
}

func (s *Store) breakdown(ctx context.Context, query, start, end string) ([]types.BreakdownEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.BreakdownEntry, 0)
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, err
		}
		entries = append(entries, types.BreakdownEntry{Name: name, Amount: types.MoneyFromCents(cents)})
	}

	return entries, rows.Err()
}

// =============================================================================
// WRITES
// =============================================================================

// Batch is one import: payments, expenses and receivables written together.
type Batch struct {
	Payments    []types.ReportRow
	Expenses    []types.Expense
	Receivables []types.Receivable
}

// Len returns the number of records in b.
func (b Batch) Len() int {
	return len(b.Payments) + len(b.Expenses) + len(b.Receivables)
}

// Import writes b in a single transaction and returns how many records were
// written. Nothing is written if any insert fails.
func (s *Store) Import(ctx context.Context, b Batch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	inserts := []struct {
		kind  string
		query string
		n     int
		args  func(i int) []any
	}{
		{"payment", insertPaymentQuery, len(b.Payments), func(i int) []any { return paymentArgs(b.Payments[i]) }},
		{"expense", insertExpenseQuery, len(b.Expenses), func(i int) []any { return expenseArgs(b.Expenses[i]) }},
		{"receivable", insertReceivableQuery, len(b.Receivables), func(i int) []any { return receivableArgs(b.Receivables[i]) }},
	}

	for _, ins := range inserts {
		if ins.n == 0 {
			continue
		}
		if err := insertAll(ctx, tx, ins.kind, ins.query, ins.n, ins.args); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Int("payments", len(b.Payments)).
		Int("expenses", len(b.Expenses)).
		Int("receivables", len(b.Receivables)).
		Msg("records imported")

	return b.Len(), nil
}

// ImportRows imports payments only. See Import.
func (s *Store) ImportRows(ctx context.Context, rows []types.ReportRow) (int, error) {
	return s.Import(ctx, Batch{Payments: rows})
}

func insertAll(ctx context.Context, tx *sql.Tx, kind, query string, n int, args func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", kind, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert %s %d: %w", kind, i+1, err)
		}
	}
	return nil
}

func paymentArgs(row types.ReportRow) []any {
	return []any{
		row.PaymentDate.Format(dateLayout),
		row.ClassName,
		row.MemberName,
		row.Description,
		types.Cents(row.Amount),
		row.PhoneNumber,
		row.RemainingSessions,
		row.Status.String(),
	}
}

func expenseArgs(e types.Expense) []any {
	return []any{e.Date.Format(dateLayout), e.Category, e.Description, types.Cents(e.Amount)}
}

func receivableArgs(r types.Receivable) []any {
	settled := 0
	if r.Settled {
		settled = 1
	}
	return []any{r.MemberName, r.DueDate.Format(dateLayout), types.Cents(r.Amount), settled}
}

func periodArgs(p report.Period) (string, string) {
	return p.Start.Format(dateLayout), p.End.Format(dateLayout)
}
