package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"financial-hub/internal/domain"
	"financial-hub/internal/repository"
)

const entryDateLayout = "2006-01-02"

// EntryInput carries the mutable fields of an account entry. Nil numeric
// fields default to zero, matching the API contract.
type EntryInput struct {
	EntryDate   string
	Cash        *float64
	Investments *float64
	Debt        *float64
}

// AccountService describes account and entry operations for one authenticated
// user. Every call takes the caller's user id and never reaches rows outside
// that scope.
type AccountService interface {
	CreateAccount(ctx context.Context, userID int64, name string) (*domain.Account, error)
	RenameAccount(ctx context.Context, id, userID int64, name string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id, userID int64) error
	ListAccounts(ctx context.Context, userID int64) ([]domain.AccountSummary, error)
	GetAccount(ctx context.Context, id, userID int64) (*domain.AccountDetail, error)

	AddEntry(ctx context.Context, accountID, userID int64, input EntryInput) (*domain.AccountEntry, error)
	UpdateEntry(ctx context.Context, entryID, accountID, userID int64, input EntryInput) (*domain.AccountEntry, error)
	DeleteEntry(ctx context.Context, entryID, accountID, userID int64) error
}

type accountService struct {
	accounts repository.AccountRepository
	entries  repository.EntryRepository
}

func NewAccountService(accounts repository.AccountRepository, entries repository.EntryRepository) AccountService {
	return &accountService{
		accounts: accounts,
		entries:  entries,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, userID int64, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("account name is required")
	}

	account := &domain.Account{
		UserID: userID,
		Name:   name,
	}
	if _, err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) RenameAccount(ctx context.Context, id, userID int64, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("account name is required")
	}

	ok, err := s.accounts.UpdateName(ctx, id, userID, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.accounts.GetByID(ctx, id, userID)
}

func (s *accountService) DeleteAccount(ctx context.Context, id, userID int64) error {
	ok, err := s.accounts.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	return nil
}

func (s *accountService) ListAccounts(ctx context.Context, userID int64) ([]domain.AccountSummary, error) {
	return s.accounts.ListWithLatestEntry(ctx, userID)
}

func (s *accountService) GetAccount(ctx context.Context, id, userID int64) (*domain.AccountDetail, error) {
	account, err := s.accounts.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	entries, err := s.entries.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &domain.AccountDetail{
		Account: *account,
		Entries: entries,
	}, nil
}

func (s *accountService) AddEntry(ctx context.Context, accountID, userID int64, input EntryInput) (*domain.AccountEntry, error) {
	if err := s.ensureAccountOwned(ctx, accountID, userID); err != nil {
		return nil, err
	}
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}

	entry := &domain.AccountEntry{
		AccountID:   accountID,
		EntryDate:   input.EntryDate,
		Cash:        valueOrZero(input.Cash),
		Investments: valueOrZero(input.Investments),
		Debt:        valueOrZero(input.Debt),
	}
	if _, err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *accountService) UpdateEntry(ctx context.Context, entryID, accountID, userID int64, input EntryInput) (*domain.AccountEntry, error) {
	if err := s.ensureAccountOwned(ctx, accountID, userID); err != nil {
		return nil, err
	}
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}

	entry := &domain.AccountEntry{
		ID:          entryID,
		AccountID:   accountID,
		EntryDate:   input.EntryDate,
		Cash:        valueOrZero(input.Cash),
		Investments: valueOrZero(input.Investments),
		Debt:        valueOrZero(input.Debt),
	}
	ok, err := s.entries.Update(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEntryNotFound
	}
	return s.entries.GetByID(ctx, entryID, accountID)
}

func (s *accountService) DeleteEntry(ctx context.Context, entryID, accountID, userID int64) error {
	if err := s.ensureAccountOwned(ctx, accountID, userID); err != nil {
		return err
	}

	ok, err := s.entries.Delete(ctx, entryID, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEntryNotFound
	}
	return nil
}

func (s *accountService) ensureAccountOwned(ctx context.Context, accountID, userID int64) error {
	if _, err := s.accounts.GetByID(ctx, accountID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

func validateEntryInput(input EntryInput) error {
	if strings.TrimSpace(input.EntryDate) == "" {
		return errValidation("entry date is required")
	}
	if _, err := time.Parse(entryDateLayout, input.EntryDate); err != nil {
		return errValidation("entry date must be YYYY-MM-DD")
	}
	if valueOrZero(input.Cash) < 0 || valueOrZero(input.Investments) < 0 || valueOrZero(input.Debt) < 0 {
		return errValidation("cash, investments and debt must not be negative")
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
