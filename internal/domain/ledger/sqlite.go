package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	type        TEXT NOT NULL,
	account     TEXT NOT NULL,
	account_to  TEXT NOT NULL DEFAULT '',
	amount      TEXT NOT NULL,
	currency    TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	subcategory TEXT NOT NULL DEFAULT '',
	merchant    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	source      TEXT NOT NULL,
	source_id   TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	errors      TEXT NOT NULL DEFAULT '[]',
	dedupe_key  TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_date   ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_dedupe ON transactions(dedupe_key);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
`

// SQLiteStore is the on-disk Store. A single connection in WAL mode is
// plenty for a single-user ledger and sidesteps SQLITE_BUSY.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the ledger database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %w)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Append(ctx context.Context, records ...*transaction.Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (
				id, date, type, account, account_to, amount, currency,
				category, subcategory, merchant, description, tags,
				source, source_id, status, errors, dedupe_key, created_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UTC().Format(time.RFC3339)
		for _, rec := range records {
			tags, err := json.Marshal(rec.Tags)
			if err != nil {
				return err
			}
			fieldErrs, err := json.Marshal(rec.Errors)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				rec.ID.String(),
				rec.Date.UTC().Format(time.RFC3339),
				string(rec.Type),
				rec.Account,
				rec.AccountTo,
				rec.Amount.String(),
				rec.Currency,
				rec.Category,
				rec.Subcategory,
				rec.Merchant,
				rec.Description,
				string(tags),
				rec.Source,
				rec.SourceID,
				string(rec.Status),
				string(fieldErrs),
				rec.DedupeKey(),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

const selectColumns = `
	id, date, type, account, account_to, amount, currency,
	category, subcategory, merchant, description, tags,
	source, source_id, status, errors`

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+selectColumns+" FROM transactions WHERE id = ?", id.String())
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*transaction.Record, error) {
	query := "SELECT" + selectColumns + " FROM transactions WHERE 1=1"
	var args []any

	if !f.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query += " AND date < ?"
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.Account != "" {
		query += " AND (account = ? OR account_to = ?)"
		args = append(args, f.Account, f.Account)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		query += " AND source = ?"
		args = append(args, f.Source)
	}
	query += " ORDER BY date, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []*transaction.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT dedupe_key FROM transactions")
	if err != nil {
		return nil, fmt.Errorf("failed to load dedupe keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = ? WHERE id = ?", string(status), id.String())
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, rec *transaction.Record) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return err
	}
	fieldErrs, err := json.Marshal(rec.Errors)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			date = ?, type = ?, account = ?, account_to = ?, amount = ?,
			currency = ?, category = ?, subcategory = ?, merchant = ?,
			description = ?, tags = ?, status = ?, errors = ?, dedupe_key = ?
		WHERE id = ?`,
		rec.Date.UTC().Format(time.RFC3339),
		string(rec.Type),
		rec.Account,
		rec.AccountTo,
		rec.Amount.String(),
		rec.Currency,
		rec.Category,
		rec.Subcategory,
		rec.Merchant,
		rec.Description,
		string(tags),
		string(rec.Status),
		string(fieldErrs),
		rec.DedupeKey(),
		rec.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*transaction.Record, error) {
	var (
		rec                        transaction.Record
		idStr, dateStr, amountStr  string
		typeStr, statusStr         string
		tagsJSON, errsJSON         string
	)
	err := row.Scan(
		&idStr, &dateStr, &typeStr, &rec.Account, &rec.AccountTo,
		&amountStr, &rec.Currency, &rec.Category, &rec.Subcategory,
		&rec.Merchant, &rec.Description, &tagsJSON,
		&rec.Source, &rec.SourceID, &statusStr, &errsJSON,
	)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("corrupt record id %q: %w", idStr, err)
	}
	if rec.Date, err = time.Parse(time.RFC3339, dateStr); err != nil {
		return nil, fmt.Errorf("corrupt record date %q: %w", dateStr, err)
	}
	if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("corrupt record amount %q: %w", amountStr, err)
	}
	rec.Type = transaction.Type(typeStr)
	rec.Status = transaction.Status(statusStr)
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, fmt.Errorf("corrupt record tags: %w", err)
	}
	if err := json.Unmarshal([]byte(errsJSON), &rec.Errors); err != nil {
		return nil, fmt.Errorf("corrupt record errors: %w", err)
	}
	return &rec, nil
}
