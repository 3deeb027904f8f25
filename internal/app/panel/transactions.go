package panel

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/repository/transactions_repo"
)

// TransactionQueryEngine answers lookups over the transaction log of the
// authenticated account.
type TransactionQueryEngine struct {
	db     domain.Querier
	repo   transactions_repo.TransactionRepository
	logger *zap.Logger
}

func NewTransactionQueryEngine(db domain.Querier, repo transactions_repo.TransactionRepository, logger *zap.Logger) *TransactionQueryEngine {
	return &TransactionQueryEngine{db: db, repo: repo, logger: logger}
}

// FindByFilter returns the caller's transactions matching filter. The
// filter's AccountID is always replaced by accountID. No match is an empty
// slice, not an error.
func (e *TransactionQueryEngine) FindByFilter(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	filter.AccountID = accountID
	return e.find(ctx, filter)
}

// FindByID looks up one transaction of the caller, including invalidated
// ones.
func (e *TransactionQueryEngine) FindByID(ctx context.Context, accountID, transactionID string) (domain.Transaction, error) {
	return e.findOne(ctx, domain.TransactionFilter{AccountID: accountID, ID: &transactionID})
}

// FindByOrderID looks up the caller's transaction for an external order id.
func (e *TransactionQueryEngine) FindByOrderID(ctx context.Context, accountID, orderID string) (domain.Transaction, error) {
	return e.findOne(ctx, domain.TransactionFilter{AccountID: accountID, OrderID: &orderID})
}

func (e *TransactionQueryEngine) findOne(ctx context.Context, filter domain.TransactionFilter) (domain.Transaction, error) {
	onlyValid := false
	limit := 1
	filter.OnlyValid = &onlyValid
	filter.Limit = &limit

	found, err := e.find(ctx, filter)
	if err != nil {
		return domain.Transaction{}, err
	}
	if len(found) == 0 {
		return domain.Transaction{}, domain.NewNotFoundError("transaction", nil)
	}
	return found[0], nil
}

func (e *TransactionQueryEngine) find(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	found, err := e.repo.FindTx(ctx, e.db, filter)
	if err != nil {
		if errors.Is(err, transactions_repo.ErrUnsupportedOrderBy) && filter.OrderBy != nil {
			return nil, domain.NewValidationError("unsupported order_by: %s", *filter.OrderBy)
		}
		return nil, domain.NewStoreUnavailableError(err)
	}
	if found == nil {
		found = []domain.Transaction{}
	}
	e.logger.Debug("Transactions found", zap.String("account_id", filter.AccountID), zap.Int("count", len(found)))
	return found, nil
}

// ParseTransactionFilter reads the recognized filter keys from query. Keys it
// does not know are ignored; known keys with malformed values are rejected.
func ParseTransactionFilter(query url.Values) (domain.TransactionFilter, error) {
	var f domain.TransactionFilter

	if v := query.Get("type"); v != "" {
		f.Type = &v
	}
	if v := query.Get("status"); v != "" {
		f.Status = &v
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.NewValidationError("invalid offset: must be a non-negative integer")
		}
		f.Offset = &n
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, domain.NewValidationError("invalid limit: must be a positive integer")
		}
		f.Limit = &n
	}
	if v := query.Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, domain.NewValidationError("invalid before: must be an RFC 3339 timestamp")
		}
		f.Before = &t
	}
	if v := query.Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, domain.NewValidationError("invalid after: must be an RFC 3339 timestamp")
		}
		f.After = &t
	}
	if v := query.Get("order"); v != "" {
		order := domain.SortOrder(strings.ToLower(v))
		if order != domain.SortAsc && order != domain.SortDesc {
			return f, domain.NewValidationError("invalid order: must be asc or desc")
		}
		f.Order = &order
	}
	if v := query.Get("order_by"); v != "" {
		if !transactions_repo.IsOrderableColumn(v) {
			return f, domain.NewValidationError("unsupported order_by: %s", v)
		}
		f.OrderBy = &v
	}
	if v := query.Get("only_valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.NewValidationError("invalid only_valid: must be a boolean")
		}
		f.OnlyValid = &b
	}

	return f, nil
}
