// Package finance computes the derived values the dashboard shows: net worth
// per snapshot and the percent change between the two most recent snapshots.
// Arithmetic runs on decimals so repeated cash/debt sums do not accumulate
// float drift.
package finance

import (
	"github.com/shopspring/decimal"

	"financial-hub/internal/domain"
)

// NetWorth computes cash + investments - debt for a single entry.
func NetWorth(entry domain.AccountEntry) float64 {
	net := decimal.NewFromFloat(entry.Cash).
		Add(decimal.NewFromFloat(entry.Investments)).
		Sub(decimal.NewFromFloat(entry.Debt))
	f, _ := net.Float64()
	return f
}

// LatestEntry returns the entry with the greatest entry_date. Entries sharing
// a date tie-break on the highest id. Returns nil for an empty slice.
func LatestEntry(entries []domain.AccountEntry) *domain.AccountEntry {
	var latest *domain.AccountEntry
	for i := range entries {
		if latest == nil || after(entries[i], *latest) {
			latest = &entries[i]
		}
	}
	return latest
}

// PercentChange compares the net worth of the two chronologically last entries
// and returns (latest - previous) / |previous| * 100. The second return is
// false when fewer than two entries exist or the previous net worth is zero,
// in which case the change is undefined rather than infinite.
func PercentChange(entries []domain.AccountEntry) (float64, bool) {
	if len(entries) < 2 {
		return 0, false
	}

	var latest, previous *domain.AccountEntry
	for i := range entries {
		e := &entries[i]
		switch {
		case latest == nil || after(*e, *latest):
			previous = latest
			latest = e
		case previous == nil || after(*e, *previous):
			previous = e
		}
	}

	prev := decimal.NewFromFloat(NetWorth(*previous))
	if prev.IsZero() {
		return 0, false
	}

	change := decimal.NewFromFloat(NetWorth(*latest)).
		Sub(prev).
		Div(prev.Abs()).
		Mul(decimal.NewFromInt(100))
	f, _ := change.Float64()
	return f, true
}

func after(a, b domain.AccountEntry) bool {
	if a.EntryDate != b.EntryDate {
		return a.EntryDate > b.EntryDate
	}
	return a.ID > b.ID
}
