// Package export serializes a user's accounts and entries into a single JSON
// snapshot document and keeps those snapshots in object storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"financial-hub/internal/domain"
	"financial-hub/internal/finance"
	"financial-hub/internal/service"
	"financial-hub/internal/storage"
)

// ErrNotConfigured is returned when no storage bucket is set.
var ErrNotConfigured = fmt.Errorf("storage service not configured")

// Document is the exported snapshot payload.
type Document struct {
	ExportedAt string            `json:"exported_at"`
	User       DocumentUser      `json:"user"`
	Accounts   []DocumentAccount `json:"accounts"`
}

type DocumentUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type DocumentAccount struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	NetWorth  float64         `json:"net_worth"`
	CreatedAt string          `json:"created_at"`
	Entries   []DocumentEntry `json:"entries"`
}

type DocumentEntry struct {
	ID          int64   `json:"id"`
	EntryDate   string  `json:"entry_date"`
	Cash        float64 `json:"cash"`
	Investments float64 `json:"investments"`
	Debt        float64 `json:"debt"`
	NetWorth    float64 `json:"net_worth"`
}

// Service writes, lists and deletes snapshot exports for one user at a time.
type Service interface {
	Enabled() bool
	Export(ctx context.Context, user *domain.User) (string, error)
	List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error)
	Purge(ctx context.Context, userID int64) error
}

type exportService struct {
	accounts  service.AccountService
	store     storage.Service
	bucket    string
	keyPrefix string
}

func NewService(accounts service.AccountService, store storage.Service, bucket, keyPrefix string) Service {
	return &exportService{
		accounts:  accounts,
		store:     store,
		bucket:    strings.TrimSpace(bucket),
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

func (s *exportService) Enabled() bool {
	return s.store != nil && s.bucket != ""
}

func (s *exportService) Export(ctx context.Context, user *domain.User) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	doc, err := s.buildDocument(ctx, user)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/snapshot-%s-%s.json",
		s.userPrefix(user.ID),
		time.Now().UTC().Format("20060102T150405Z"),
		uuid.NewString()[:8],
	)

	location, err := s.store.PutObject(ctx, key, body, storage.UploadOptions{
		Bucket:      s.bucket,
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return location, nil
}

func (s *exportService) List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	return s.store.ListObjects(ctx, s.bucket, s.userPrefix(userID)+"/")
}

func (s *exportService) Purge(ctx context.Context, userID int64) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	return s.store.DeletePrefix(ctx, s.bucket, s.userPrefix(userID)+"/")
}

func (s *exportService) buildDocument(ctx context.Context, user *domain.User) (*Document, error) {
	summaries, err := s.accounts.ListAccounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		User: DocumentUser{
			ID:       user.ID,
			Username: user.Username,
		},
		Accounts: make([]DocumentAccount, 0, len(summaries)),
	}

	for _, summary := range summaries {
		detail, err := s.accounts.GetAccount(ctx, summary.ID, user.ID)
		if err != nil {
			return nil, err
		}

		account := DocumentAccount{
			ID:        detail.ID,
			Name:      detail.Name,
			CreatedAt: detail.CreatedAt.Format(time.RFC3339),
			Entries:   make([]DocumentEntry, 0, len(detail.Entries)),
		}
		for _, entry := range detail.Entries {
			account.Entries = append(account.Entries, DocumentEntry{
				ID:          entry.ID,
				EntryDate:   entry.EntryDate,
				Cash:        entry.Cash,
				Investments: entry.Investments,
				Debt:        entry.Debt,
				NetWorth:    finance.NetWorth(entry),
			})
		}
		if latest := finance.LatestEntry(detail.Entries); latest != nil {
			account.NetWorth = finance.NetWorth(*latest)
		}
		doc.Accounts = append(doc.Accounts, account)
	}

	return doc, nil
}

func (s *exportService) userPrefix(userID int64) string {
	if s.keyPrefix == "" {
		return fmt.Sprintf("user-%d", userID)
	}
	return fmt.Sprintf("%s/user-%d", s.keyPrefix, userID)
}
