package domain

import "time"

// Account is a named grouping of chronological financial snapshots owned by one user.
type Account struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// AccountEntry is a dated snapshot of cash/investments/debt for one account.
// EntryDate is a calendar date in YYYY-MM-DD form; entries for the same account
// may share a date.
type AccountEntry struct {
	ID          int64
	AccountID   int64
	EntryDate   string
	Cash        float64
	Investments float64
	Debt        float64
	CreatedAt   time.Time
}

// AccountSummary pairs an account with its most recent entry, if any.
type AccountSummary struct {
	Account
	LatestEntry *AccountEntry
}

// AccountDetail pairs an account with all of its entries in chronological order.
type AccountDetail struct {
	Account
	Entries []AccountEntry
}
