package panel

import (
	"context"
	"errors"
	"sync"

	"panel/internal/domain"
	"panel/internal/repository/inbox_repo"
	"panel/internal/repository/transactions_repo"
)

var errStoreDown = errors.New("connection refused")

type fakeTransactor struct {
	calls int
	err   error
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	t.calls++
	if t.err != nil {
		return t.err
	}
	return fn(nil)
}

type fakeAccountRepo struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	created     []*domain.Account
	createErr   error
	getErr      error
	settingsErr error
	updateErr   error
	updates     int
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		cp := *a
		r.accounts[a.ID] = &cp
	}
	return r
}

func (r *fakeAccountRepo) CreateAccountTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *account
	r.accounts[account.ID] = &cp
	r.created = append(r.created, &cp)
	return nil
}

func (r *fakeAccountRepo) GetAccountByIDTx(ctx context.Context, q domain.Querier, accountID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	cp.CredentialHash = ""
	return &cp, nil
}

func (r *fakeAccountRepo) GetSettingsTx(ctx context.Context, q domain.Querier, accountID string) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settingsErr != nil {
		return domain.Settings{}, r.settingsErr
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return domain.Settings{}, domain.ErrAccountNotFound
	}
	return a.Settings, nil
}

func (r *fakeAccountRepo) UpdateSettingsTx(ctx context.Context, q domain.Querier, accountID string, settings domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Settings = settings
	return nil
}

func (r *fakeAccountRepo) UpdateProfileTx(ctx context.Context, q domain.Querier, accountID string, profile domain.AccountProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Domain = profile.Domain
	a.EmailAccountContact = profile.EmailAccountContact
	a.EmailCustomerContact = profile.EmailCustomerContact
	a.Name = profile.Name
	return nil
}

type fakeOutboxRepo struct {
	messages []*domain.OutboxMessage
	err      error
}

func (r *fakeOutboxRepo) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	out := make([]domain.OutboxMessage, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeOutboxRepo) UpdateMessageStatusTx(ctx context.Context, q domain.Querier, id string, status domain.OutboxMessageStatus) error {
	return nil
}

// fakeTransactionRepo applies the identity and validity parts of a filter,
// which is all the query engine decides on its own.
type fakeTransactionRepo struct {
	mu      sync.Mutex
	rows    []domain.Transaction
	filters []domain.TransactionFilter
	err     error
}

func (r *fakeTransactionRepo) FindTx(ctx context.Context, q domain.Querier, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
	if r.err != nil {
		return nil, r.err
	}
	onlyValid := filter.OnlyValid == nil || *filter.OnlyValid
	var out []domain.Transaction
	for _, t := range r.rows {
		switch {
		case t.AccountID != filter.AccountID:
		case filter.ID != nil && t.ID != *filter.ID:
		case filter.OrderID != nil && t.OrderID != *filter.OrderID:
		case filter.Type != nil && t.Type != *filter.Type:
		case filter.Status != nil && string(t.Status) != *filter.Status:
		case onlyValid && !t.Valid:
		default:
			out = append(out, t)
		}
		if filter.Limit != nil && len(out) == *filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) InsertTx(ctx context.Context, q domain.Querier, t *domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == t.ID {
			return false, nil
		}
	}
	r.rows = append(r.rows, *t)
	return true, nil
}

func (r *fakeTransactionRepo) UpdateStateTx(ctx context.Context, q domain.Querier, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == t.ID && row.AccountID == t.AccountID && row.OrderID == t.OrderID {
			r.rows[i].Status = t.Status
			r.rows[i].Valid = t.Valid
			return nil
		}
	}
	return transactions_repo.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) lastFilter() domain.TransactionFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filters[len(r.filters)-1]
}

type fakeCoinRepo struct {
	coins []domain.Coin
	err   error
}

func (r *fakeCoinRepo) ListByAccountTx(ctx context.Context, q domain.Querier, accountID string, currency *string) ([]domain.Coin, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Coin
	for _, c := range r.coins {
		if c.AccountID != accountID {
			continue
		}
		if currency != nil && c.Currency != *currency {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeInboxRepo struct {
	seen map[string]domain.InboxMessageStatus
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{seen: make(map[string]domain.InboxMessageStatus)}
}

func (r *fakeInboxRepo) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.InboxMessage) error {
	if _, ok := r.seen[msg.ID]; ok {
		return inbox_repo.ErrMessageAlreadyProcessed
	}
	r.seen[msg.ID] = msg.Status
	return nil
}

func (r *fakeInboxRepo) UpdateStatusTx(ctx context.Context, q domain.Querier, id string, status domain.InboxMessageStatus) error {
	r.seen[id] = status
	return nil
}

func ptr[T any](v T) *T { return &v }
