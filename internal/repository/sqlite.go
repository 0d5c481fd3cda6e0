package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore is the durable Store backed by a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTransactions inserts txns in one transaction, assigning missing IDs.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, txns []domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO transactions
		(id, user_id, description, amount, category, date_ns)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		t := &txns[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.Description, t.Amount.String(), t.Category, toNanos(t.Date)); err != nil {
			return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns a user's transactions newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, user_id, description, amount, category, date_ns
		FROM transactions WHERE user_id = ? ORDER BY date_ns DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var amount string
		var category sql.NullString
		var dateNs int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &amount, &category, &dateNs); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", t.ID, err)
		}
		t.Category = category.String
		t.Date = fromNanos(dateNs)
		result = append(result, t)
	}
	return result, rows.Err()
}

// CountTransactions returns how many transactions a user has.
func (s *SQLiteStore) CountTransactions(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// SaveTaxRecord stores rec, assigning an ID and timestamp when missing.
func (s *SQLiteStore) SaveTaxRecord(ctx context.Context, rec *domain.TaxRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	deductions, err := json.Marshal(rec.Deductions)
	if err != nil {
		return err
	}
	sources, err := json.Marshal(nonNil(rec.Sources))
	if err != nil {
		return err
	}
	tips, err := json.Marshal(nonNil(rec.TaxTips))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO tax_records
		(id, user_id, financial_year, total_income, deductions, sources,
		 old_regime_tax, new_regime_tax, savings, recommendation,
		 savings_suggestion, tax_tips, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.FinancialYear, rec.TotalIncome.String(), string(deductions), string(sources),
		rec.Comparison.OldRegimeTax.String(), rec.Comparison.NewRegimeTax.String(),
		rec.Comparison.Savings.String(), string(rec.Comparison.Recommendation),
		rec.SavingsSuggestion, string(tips), toNanos(rec.Timestamp),
	)
	return err
}

// LatestTaxRecord returns the newest record for a user.
func (s *SQLiteStore) LatestTaxRecord(ctx context.Context, userID string) (*domain.TaxRecord, error) {
	return s.LatestTaxRecordSince(ctx, userID, time.Time{})
}

// LatestTaxRecordSince returns the newest record no older than since.
func (s *SQLiteStore) LatestTaxRecordSince(ctx context.Context, userID string, since time.Time) (*domain.TaxRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, financial_year, total_income, deductions, sources,
		old_regime_tax, new_regime_tax, savings, recommendation, savings_suggestion, tax_tips, timestamp_ns
		FROM tax_records WHERE user_id = ? AND timestamp_ns >= ?
		ORDER BY timestamp_ns DESC, rowid DESC LIMIT 1`, userID, toNanos(since))

	var rec domain.TaxRecord
	var income, deductions, sources, oldTax, newTax, savings, recommendation, tips string
	var suggestion sql.NullString
	var ts int64
	err := row.Scan(&rec.ID, &rec.UserID, &rec.FinancialYear, &income, &deductions, &sources,
		&oldTax, &newTax, &savings, &recommendation, &suggestion, &tips, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := parseDecimals(
		decimalField{income, &rec.TotalIncome},
		decimalField{oldTax, &rec.Comparison.OldRegimeTax},
		decimalField{newTax, &rec.Comparison.NewRegimeTax},
		decimalField{savings, &rec.Comparison.Savings},
	); err != nil {
		return nil, fmt.Errorf("tax record %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(deductions), &rec.Deductions); err != nil {
		return nil, fmt.Errorf("tax record %s deductions: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("tax record %s sources: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(tips), &rec.TaxTips); err != nil {
		return nil, fmt.Errorf("tax record %s tips: %w", rec.ID, err)
	}
	rec.Comparison.Recommendation = domain.Regime(recommendation)
	rec.SavingsSuggestion = suggestion.String
	rec.Timestamp = fromNanos(ts)
	return &rec, nil
}

// SaveSavingsRecord stores rec, assigning an ID and timestamp when missing.
func (s *SQLiteStore) SaveSavingsRecord(ctx context.Context, rec *domain.SavingsRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	spends, err := json.Marshal(nonNil(rec.WastefulSpends))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO savings_records
		(id, user_id, monthly_income, monthly_expense, current_savings, potential_savings,
		 wasteful_spends, ai_advice, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.MonthlyIncome.String(), rec.MonthlyExpense.String(),
		rec.CurrentSavings.String(), rec.PotentialSavings.String(),
		string(spends), rec.AIAdvice, toNanos(rec.Timestamp),
	)
	return err
}

// LatestSavingsRecordSince returns the newest savings record no older than since.
func (s *SQLiteStore) LatestSavingsRecordSince(ctx context.Context, userID string, since time.Time) (*domain.SavingsRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, monthly_income, monthly_expense, current_savings,
		potential_savings, wasteful_spends, ai_advice, timestamp_ns
		FROM savings_records WHERE user_id = ? AND timestamp_ns >= ?
		ORDER BY timestamp_ns DESC, rowid DESC LIMIT 1`, userID, toNanos(since))

	var rec domain.SavingsRecord
	var income, expense, current, potential, spends string
	var advice sql.NullString
	var ts int64
	err := row.Scan(&rec.ID, &rec.UserID, &income, &expense, &current, &potential, &spends, &advice, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := parseDecimals(
		decimalField{income, &rec.MonthlyIncome},
		decimalField{expense, &rec.MonthlyExpense},
		decimalField{current, &rec.CurrentSavings},
		decimalField{potential, &rec.PotentialSavings},
	); err != nil {
		return nil, fmt.Errorf("savings record %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(spends), &rec.WastefulSpends); err != nil {
		return nil, fmt.Errorf("savings record %s spends: %w", rec.ID, err)
	}
	rec.AIAdvice = advice.String
	rec.Timestamp = fromNanos(ts)
	return &rec, nil
}

// SaveLoan stores loan, assigning an ID when missing.
func (s *SQLiteStore) SaveLoan(ctx context.Context, loan *domain.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO loans
		(id, user_id, lender, loan_type, amount, outstanding, start_date_ns, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.UserID, loan.Lender, string(loan.Type), loan.Amount.String(),
		loan.Outstanding.String(), toNanos(loan.StartDate), loan.Status,
	)
	return err
}

// ListLoans returns a user's loans in insertion order.
func (s *SQLiteStore) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, lender, loan_type, amount, outstanding, start_date_ns, status
		FROM loans WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Loan
	for rows.Next() {
		var l domain.Loan
		var loanType, amount, outstanding string
		var startNs int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.Lender, &loanType, &amount, &outstanding, &startNs, &l.Status); err != nil {
			return nil, err
		}
		if err := parseDecimals(decimalField{amount, &l.Amount}, decimalField{outstanding, &l.Outstanding}); err != nil {
			return nil, fmt.Errorf("loan %s: %w", l.ID, err)
		}
		l.Type = domain.LoanType(loanType)
		l.StartDate = fromNanos(startNs)
		result = append(result, l)
	}
	return result, rows.Err()
}

type decimalField struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return err
		}
		*f.dst = d
	}
	return nil
}

// toNanos maps the zero time to 0 so it sorts before every real timestamp.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
