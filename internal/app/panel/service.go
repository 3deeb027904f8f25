package panel

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"panel/internal/domain"
	"panel/internal/domain/event"
	"panel/internal/repository/accounts_repo"
)

const overviewCurrency = "XBT"

// Overview is the landing page data of the account panel.
type Overview struct {
	Account      *domain.Account      `json:"account"`
	Balances     []domain.Balance     `json:"balances"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Service is the entry point of the panel for the transport layers. Every
// method reports its outcome as a Result.
type Service struct {
	db           domain.Querier
	accounts     accounts_repo.AccountRepository
	transactions *TransactionQueryEngine
	balances     *BalanceAggregator
	settings     *SettingsCoordinator
	registration *RegistrationValidator
	ingestor     *TransactionIngestor
	logger       *zap.Logger
}

func NewService(
	db domain.Querier,
	accounts accounts_repo.AccountRepository,
	transactions *TransactionQueryEngine,
	balances *BalanceAggregator,
	settings *SettingsCoordinator,
	registration *RegistrationValidator,
	ingestor *TransactionIngestor,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		balances:     balances,
		settings:     settings,
		registration: registration,
		ingestor:     ingestor,
		logger:       logger,
	}
}

func (s *Service) GetTransactions(ctx context.Context, accountID string, query url.Values) Result[[]domain.Transaction] {
	filter, err := ParseTransactionFilter(query)
	if err != nil {
		return fail[[]domain.Transaction](s.logger, err, msgRetrieveTransactions)
	}
	found, err := s.transactions.FindByFilter(ctx, accountID, filter)
	if err != nil {
		return fail[[]domain.Transaction](s.logger, err, msgRetrieveTransactions)
	}
	if len(found) == 0 {
		return succeed(found, "no transactions found")
	}
	return succeed(found)
}

func (s *Service) GetTransaction(ctx context.Context, accountID, transactionID string) Result[*domain.Transaction] {
	tx, err := s.transactions.FindByID(ctx, accountID, transactionID)
	return s.transactionResult(tx, err)
}

func (s *Service) GetTransactionByOrderID(ctx context.Context, accountID, orderID string) Result[*domain.Transaction] {
	tx, err := s.transactions.FindByOrderID(ctx, accountID, orderID)
	return s.transactionResult(tx, err)
}

func (s *Service) transactionResult(tx domain.Transaction, err error) Result[*domain.Transaction] {
	if err != nil {
		return fail[*domain.Transaction](s.logger, err, msgRetrieveTransaction)
	}
	return succeed(&tx)
}

func (s *Service) GetBalances(ctx context.Context, accountID string, currency *string) Result[[]domain.Balance] {
	balances, err := s.balances.GetBalances(ctx, accountID, currency)
	if err != nil {
		return fail[[]domain.Balance](s.logger, err, msgRetrieveBalances)
	}
	return succeed(balances)
}

func (s *Service) GetAccount(ctx context.Context, accountID string) Result[*domain.Account] {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return fail[*domain.Account](s.logger, err, msgRetrieveAccount)
	}
	return succeed(account)
}

// PatchAccount changes the profile fields of the account. Credentials and
// settings are not reachable through it.
func (s *Service) PatchAccount(ctx context.Context, accountID string, raw map[string]any) Result[*domain.Account] {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return fail[*domain.Account](s.logger, err, msgUpdateAccount)
	}
	profile, err := s.registration.ApplyProfilePatch(domain.AccountProfile{
		Domain:               account.Domain,
		EmailAccountContact:  account.EmailAccountContact,
		EmailCustomerContact: account.EmailCustomerContact,
		Name:                 account.Name,
	}, raw)
	if err != nil {
		return fail[*domain.Account](s.logger, err, msgUpdateAccount)
	}
	if err := s.accounts.UpdateProfileTx(ctx, s.db, accountID, profile); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			err = domain.NewNotFoundError("account", err)
		} else {
			err = domain.NewStoreUnavailableError(err)
		}
		return fail[*domain.Account](s.logger, err, msgUpdateAccount)
	}

	account.Domain = profile.Domain
	account.EmailAccountContact = profile.EmailAccountContact
	account.EmailCustomerContact = profile.EmailCustomerContact
	account.Name = profile.Name
	s.logger.Info("Account profile updated", zap.String("account_id", accountID))
	return succeed(account, "account updated")
}

func (s *Service) GetSettings(ctx context.Context, accountID string) Result[domain.Settings] {
	settings, err := s.settings.GetSettings(ctx, accountID)
	if err != nil {
		return fail[domain.Settings](s.logger, err, msgRetrieveSettings)
	}
	return succeed(settings)
}

// PatchSettings loads the account and applies patch to it.
func (s *Service) PatchSettings(ctx context.Context, accountID string, patch map[string]any) Result[domain.Settings] {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return fail[domain.Settings](s.logger, err, msgUpdateSettings)
	}
	settings, err := s.settings.PatchSettings(ctx, account, patch)
	if err != nil {
		return fail[domain.Settings](s.logger, err, msgUpdateSettings)
	}
	return succeed(settings, "account's settings updated")
}

func (s *Service) Register(ctx context.Context, raw map[string]any) Result[*Registration] {
	reg, err := s.registration.Register(ctx, raw)
	if err != nil {
		return fail[*Registration](s.logger, err, msgCreateAccount)
	}
	return succeed(reg, "account created")
}

// Overview loads the account, its XBT balance and its latest transactions
// concurrently. Any failing part fails the whole overview.
func (s *Service) Overview(ctx context.Context, accountID string) Result[*Overview] {
	var (
		out      Overview
		currency = overviewCurrency
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		account, err := s.loadAccount(gctx, accountID)
		out.Account = account
		return err
	})
	g.Go(func() error {
		balances, err := s.balances.GetBalances(gctx, accountID, &currency)
		out.Balances = balances
		return err
	})
	g.Go(func() error {
		found, err := s.transactions.FindByFilter(gctx, accountID, domain.TransactionFilter{})
		out.Transactions = found
		return err
	})
	if err := g.Wait(); err != nil {
		return fail[*Overview](s.logger, err, msgRetrieveOverview)
	}
	return succeed(&out)
}

// HandleTransactionEvent applies a consumed transaction event.
func (s *Service) HandleTransactionEvent(ctx context.Context, evt event.TransactionEvent, raw []byte) error {
	return s.ingestor.ApplyTransactionEvent(ctx, evt, raw)
}

func (s *Service) loadAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByIDTx(ctx, s.db, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewNotFoundError("account", err)
		}
		return nil, domain.NewStoreUnavailableError(err)
	}
	return account, nil
}
