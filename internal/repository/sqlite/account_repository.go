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

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAccountsTable); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (int64, error) {
	account.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO accounts (user_id, name, created_at)
VALUES (?, ?, ?)`,
		account.UserID,
		account.Name,
		account.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account last insert id: %w", err)
	}
	account.ID = id
	return id, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id, userID int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, created_at
FROM accounts
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanAccount(row)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, created_at
FROM accounts
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) UpdateName(ctx context.Context, id, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET name = ?
WHERE id = ? AND user_id = ?`,
		name,
		id,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("update account: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("account update rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	// entries go with the account via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("account delete rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *AccountRepository) ListWithLatestEntry(ctx context.Context, userID int64) ([]domain.AccountSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT a.id, a.user_id, a.name, a.created_at,
	e.id, e.account_id, e.entry_date, e.cash, e.investments, e.debt, e.created_at
FROM accounts a
LEFT JOIN account_entries e ON e.id = (
	SELECT id
	FROM account_entries
	WHERE account_id = a.id
	ORDER BY entry_date DESC, id DESC
	LIMIT 1
)
WHERE a.user_id = ?
ORDER BY a.created_at DESC, a.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query accounts with latest entry: %w", err)
	}
	defer rows.Close()

	var summaries []domain.AccountSummary
	for rows.Next() {
		var (
			summary     domain.AccountSummary
			entryID     sql.NullInt64
			accountID   sql.NullInt64
			entryDate   sql.NullString
			cash        sql.NullFloat64
			investments sql.NullFloat64
			debt        sql.NullFloat64
			createdAt   sql.NullTime
		)
		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.Name,
			&summary.CreatedAt,
			&entryID,
			&accountID,
			&entryDate,
			&cash,
			&investments,
			&debt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan account summary: %w", err)
		}
		if entryID.Valid {
			summary.LatestEntry = &domain.AccountEntry{
				ID:          entryID.Int64,
				AccountID:   accountID.Int64,
				EntryDate:   entryDate.String,
				Cash:        cash.Float64,
				Investments: investments.Float64,
				Debt:        debt.Float64,
				CreatedAt:   createdAt.Time,
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &account, nil
}
