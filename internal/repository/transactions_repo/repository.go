package transactions_repo

import (
	"context"
	"errors"

	"panel/internal/domain"
)

var (
	ErrUnsupportedOrderBy  = errors.New("unsupported order_by column")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type TransactionRepository interface {
	FindTx(ctx context.Context, querier domain.Querier, filter domain.TransactionFilter) ([]domain.Transaction, error)
	InsertTx(ctx context.Context, querier domain.Querier, transaction *domain.Transaction) (bool, error)
	UpdateStateTx(ctx context.Context, querier domain.Querier, transaction *domain.Transaction) error
}

// Defaults are applied to every filter field that is left unset.
type Defaults struct {
	Limit     int
	MaxLimit  int
	OrderBy   string
	Order     domain.SortOrder
	OnlyValid bool
}

func StoreDefaults() Defaults {
	return Defaults{
		Limit:     20,
		MaxLimit:  200,
		OrderBy:   "created_at",
		Order:     domain.SortDesc,
		OnlyValid: true,
	}
}
