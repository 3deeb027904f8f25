package accounts_repo

import (
	"context"

	"panel/internal/domain"
)

type AccountRepository interface {
	CreateAccountTx(ctx context.Context, querier domain.Querier, account *domain.Account) error
	GetAccountByIDTx(ctx context.Context, querier domain.Querier, accountID string) (*domain.Account, error)
	GetSettingsTx(ctx context.Context, querier domain.Querier, accountID string) (domain.Settings, error)
	UpdateSettingsTx(ctx context.Context, querier domain.Querier, accountID string, settings domain.Settings) error
	UpdateProfileTx(ctx context.Context, querier domain.Querier, accountID string, profile domain.AccountProfile) error
}
