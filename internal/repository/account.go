package repository

import (
	"context"

	"financial-hub/internal/domain"
)

// AccountRepository defines persistence operations for Account entities. Every
// lookup and mutation is scoped by the owning user id; a row that exists but
// belongs to another user behaves exactly like a missing row.
type AccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, account *domain.Account) (int64, error)
	GetByID(ctx context.Context, id, userID int64) (*domain.Account, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Account, error)
	UpdateName(ctx context.Context, id, userID int64, name string) (bool, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	ListWithLatestEntry(ctx context.Context, userID int64) ([]domain.AccountSummary, error)
}
