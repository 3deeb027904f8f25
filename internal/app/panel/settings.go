package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/domain/event"
	"panel/internal/infrastructure/database"
	"panel/internal/repository/accounts_repo"
	"panel/internal/repository/outbox_repo"
)

// SettingsCoordinator applies settings patches. Readers of an account only
// ever see the settings that were last committed or a fully applied patch.
//
// Two concurrent patches of one account are not serialized: the later write
// wins.
type SettingsCoordinator struct {
	db          domain.Querier
	transactor  database.Transactor
	accounts    accounts_repo.AccountRepository
	outbox      outbox_repo.OutboxRepository
	allowedKeys map[string]struct{}
	topic       string
	now         func() time.Time
	logger      *zap.Logger
}

func NewSettingsCoordinator(
	db domain.Querier,
	transactor database.Transactor,
	accounts accounts_repo.AccountRepository,
	outbox outbox_repo.OutboxRepository,
	allowedKeys []string,
	topic string,
	logger *zap.Logger,
) *SettingsCoordinator {
	var allowed map[string]struct{}
	if len(allowedKeys) > 0 {
		allowed = make(map[string]struct{}, len(allowedKeys))
		for _, k := range allowedKeys {
			allowed[k] = struct{}{}
		}
	}
	return &SettingsCoordinator{
		db:          db,
		transactor:  transactor,
		accounts:    accounts,
		outbox:      outbox,
		allowedKeys: allowed,
		topic:       topic,
		now:         time.Now,
		logger:      logger,
	}
}

func (c *SettingsCoordinator) GetSettings(ctx context.Context, accountID string) (domain.Settings, error) {
	settings, err := c.accounts.GetSettingsTx(ctx, c.db, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Settings{}, domain.NewNotFoundError("account", err)
		}
		return domain.Settings{}, domain.NewStoreUnavailableError(err)
	}
	return settings, nil
}

// PatchSettings applies every key of patch onto a copy of the account's
// settings and persists the copy. account.Settings is only replaced once the
// copy is stored. If storing fails the settings are reloaded from the
// database; a failed reload is attached to the returned error.
func (c *SettingsCoordinator) PatchSettings(ctx context.Context, account *domain.Account, patch map[string]any) (domain.Settings, error) {
	if account == nil || account.ID == "" {
		return domain.Settings{}, domain.NewInternalError(errors.New("patch settings called without an account"))
	}
	if err := c.checkKeys(patch); err != nil {
		return domain.Settings{}, err
	}
	if len(patch) == 0 {
		return account.Settings, nil
	}

	next := account.Settings.With(patch)
	if _, err := json.Marshal(next); err != nil {
		return domain.Settings{}, domain.NewValidationError("settings values must be JSON encodable")
	}

	err := c.transactor.WithinTx(ctx, func(q domain.Querier) error {
		if err := c.accounts.UpdateSettingsTx(ctx, q, account.ID, next); err != nil {
			return err
		}
		msg, err := newAccountOutboxMessage(c.topic, account.ID, event.TypeAccountSettingsUpdated, event.AccountSettingsUpdatedEvent{
			AccountID:   account.ID,
			ChangedKeys: sortedKeys(patch),
			Timestamp:   c.now(),
		}, c.now())
		if err != nil {
			return err
		}
		return c.outbox.CreateMessageTx(ctx, q, msg)
	})
	if err != nil {
		return domain.Settings{}, c.reconcile(ctx, account, err)
	}

	account.Settings = next
	c.logger.Info("Account settings updated", zap.String("account_id", account.ID), zap.Strings("keys", sortedKeys(patch)))
	return next, nil
}

func (c *SettingsCoordinator) reconcile(ctx context.Context, account *domain.Account, cause error) error {
	var primary *domain.Error
	if errors.Is(cause, domain.ErrAccountNotFound) {
		primary = domain.NewNotFoundError("account", cause)
	} else {
		primary = domain.NewStoreUnavailableError(cause)
	}
	c.logger.Warn("Failed to persist account settings, reloading stored settings",
		zap.String("account_id", account.ID), zap.Error(cause))

	stored, err := c.accounts.GetSettingsTx(ctx, c.db, account.ID)
	if err != nil {
		c.logger.Error("Failed to reload account settings after failed update",
			zap.String("account_id", account.ID), zap.Error(err))
		primary.Reconciliation = domain.NewReconciliationError(err)
		return primary
	}
	account.Settings = stored
	return primary
}

func (c *SettingsCoordinator) checkKeys(patch map[string]any) error {
	if c.allowedKeys == nil {
		return nil
	}
	var unknown []string
	for k := range patch {
		if _, ok := c.allowedKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.NewValidationError("unknown settings key: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
