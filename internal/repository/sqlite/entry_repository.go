package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"financial-hub/internal/domain"
	"financial-hub/internal/repository"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS account_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL,
	entry_date TEXT NOT NULL, -- a DATE declaration would scan back as time.Time, not the YYYY-MM-DD string
	cash REAL NOT NULL DEFAULT 0,
	investments REAL NOT NULL DEFAULT 0,
	debt REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_entries_account_id ON account_entries(account_id);
CREATE INDEX IF NOT EXISTS idx_entries_date ON account_entries(entry_date);
`

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) repository.EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("create account_entries table: %w", err)
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.AccountEntry) (int64, error) {
	entry.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO account_entries (account_id, entry_date, cash, investments, debt, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		entry.AccountID,
		entry.EntryDate,
		entry.Cash,
		entry.Investments,
		entry.Debt,
		entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry last insert id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id, accountID int64) (*domain.AccountEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, account_id, entry_date, cash, investments, debt, created_at
FROM account_entries
WHERE id = ? AND account_id = ?`,
		id,
		accountID,
	)
	return scanEntry(row)
}

func (r *EntryRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.AccountEntry, error) {
	// same-date entries tie-break on id so reads are deterministic
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, entry_date, cash, investments, debt, created_at
FROM account_entries
WHERE account_id = ?
ORDER BY entry_date ASC, id ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AccountEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func (r *EntryRepository) Update(ctx context.Context, entry *domain.AccountEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE account_entries
SET entry_date = ?, cash = ?, investments = ?, debt = ?
WHERE id = ? AND account_id = ?`,
		entry.EntryDate,
		entry.Cash,
		entry.Investments,
		entry.Debt,
		entry.ID,
		entry.AccountID,
	)
	if err != nil {
		return false, fmt.Errorf("update entry: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("entry update rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id, accountID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account_entries WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("entry delete rows affected: %w", err)
	}
	return aff > 0, nil
}

func scanEntry(row interface {
	Scan(dest ...any) error
}) (*domain.AccountEntry, error) {
	var entry domain.AccountEntry
	if err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.EntryDate,
		&entry.Cash,
		&entry.Investments,
		&entry.Debt,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &entry, nil
}
