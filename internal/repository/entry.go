package repository

import (
	"context"

	"financial-hub/internal/domain"
)

// EntryRepository defines persistence operations for AccountEntry entities,
// scoped by the owning account id.
type EntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.AccountEntry) (int64, error)
	GetByID(ctx context.Context, id, accountID int64) (*domain.AccountEntry, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.AccountEntry, error)
	Update(ctx context.Context, entry *domain.AccountEntry) (bool, error)
	Delete(ctx context.Context, id, accountID int64) (bool, error)
}
