package accounts_repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"panel/internal/domain"
)

const uniqueViolation = "23505"

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) CreateAccountTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, domain, email_account_contact, email_customer_contact, name, credential_hash, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	settings, err := json.Marshal(account.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings for account %s: %w", account.ID, err)
	}

	_, err = querier.ExecContext(ctx, query,
		account.ID,
		account.Domain,
		account.EmailAccountContact,
		account.EmailCustomerContact,
		account.Name,
		account.CredentialHash,
		settings,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account %s: %w", account.ID, err)
	}
	return nil
}

// GetAccountByIDTx never selects credential_hash.
func (r *accountRepository) GetAccountByIDTx(ctx context.Context, querier domain.Querier, accountID string) (*domain.Account, error) {
	query := `
		SELECT id, domain, email_account_contact, email_customer_contact, name, settings, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	account := &domain.Account{}
	var settings []byte
	err := querier.QueryRowContext(ctx, query, accountID).Scan(
		&account.ID,
		&account.Domain,
		&account.EmailAccountContact,
		&account.EmailCustomerContact,
		&account.Name,
		&settings,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	if err := json.Unmarshal(settings, &account.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for account %s: %w", accountID, err)
	}
	return account, nil
}

func (r *accountRepository) GetSettingsTx(ctx context.Context, querier domain.Querier, accountID string) (domain.Settings, error) {
	query := `SELECT settings FROM accounts WHERE id = $1`
	var raw []byte
	if err := querier.QueryRowContext(ctx, query, accountID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{}, domain.ErrAccountNotFound
		}
		return domain.Settings{}, fmt.Errorf("failed to get settings for account %s: %w", accountID, err)
	}
	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to decode settings for account %s: %w", accountID, err)
	}
	return settings, nil
}

// UpdateSettingsTx replaces the stored settings document as a whole.
func (r *accountRepository) UpdateSettingsTx(ctx context.Context, querier domain.Querier, accountID string, settings domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings for account %s: %w", accountID, err)
	}

	query := `
		UPDATE accounts
		SET settings = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, raw, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update settings for account %s: %w", accountID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for settings update: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateProfileTx(ctx context.Context, querier domain.Querier, accountID string, profile domain.AccountProfile) error {
	query := `
		UPDATE accounts
		SET domain = $1, email_account_contact = $2, email_customer_contact = $3, name = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := querier.ExecContext(ctx, query,
		profile.Domain,
		profile.EmailAccountContact,
		profile.EmailCustomerContact,
		profile.Name,
		time.Now(),
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile for account %s: %w", accountID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for profile update: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
