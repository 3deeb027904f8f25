package panel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"panel/internal/config"
	"panel/internal/domain"
	"panel/internal/domain/event"
	"panel/internal/infrastructure/database"
	"panel/internal/repository/accounts_repo"
	"panel/internal/repository/outbox_repo"
	"panel/internal/util"
)

// Registration is the outcome of a successful sign up. AuthToken is only
// ever returned here; the account stores its bcrypt hash.
type Registration struct {
	Account   *domain.Account `json:"account"`
	AuthToken string          `json:"auth_token"`
}

// RegistrationValidator checks raw registration input against the configured
// key lists and creates the account.
type RegistrationValidator struct {
	allowed         map[string]struct{}
	required        []string
	transactor      database.Transactor
	accounts        accounts_repo.AccountRepository
	outbox          outbox_repo.OutboxRepository
	defaultSettings domain.Settings
	topic           string
	bcryptCost      int
	now             func() time.Time
	newToken        func() (string, error)
	logger          *zap.Logger
}

func NewRegistrationValidator(
	cfg config.RegistrationConfig,
	transactor database.Transactor,
	accounts accounts_repo.AccountRepository,
	outbox outbox_repo.OutboxRepository,
	defaultSettings domain.Settings,
	topic string,
	logger *zap.Logger,
) *RegistrationValidator {
	allowed := make(map[string]struct{}, len(cfg.AllowedKeys))
	for _, k := range cfg.AllowedKeys {
		allowed[k] = struct{}{}
	}
	return &RegistrationValidator{
		allowed:         allowed,
		required:        append([]string(nil), cfg.RequiredKeys...),
		transactor:      transactor,
		accounts:        accounts,
		outbox:          outbox,
		defaultSettings: defaultSettings,
		topic:           topic,
		bcryptCost:      bcrypt.DefaultCost,
		now:             time.Now,
		newToken:        util.GenerateToken,
		logger:          logger,
	}
}

// Validate enforces the allow-list and the required keys and projects the
// profile fields. Allowed keys that are not profile fields are dropped.
func (v *RegistrationValidator) Validate(raw map[string]any) (domain.AccountProfile, error) {
	var unknown []string
	for k := range raw {
		if _, ok := v.allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.AccountProfile{}, domain.NewValidationError("unknown key: %s", strings.Join(unknown, ", "))
	}

	var missing []string
	for _, k := range v.required {
		if !present(raw, k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return domain.AccountProfile{}, domain.NewValidationError("missing required keys: %s", strings.Join(missing, ", "))
	}

	var profile domain.AccountProfile
	for _, f := range profileFields(&profile) {
		value, ok := raw[f.key]
		if !ok || value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return domain.AccountProfile{}, domain.NewValidationError("invalid value for %s: expected a string", f.key)
		}
		*f.dst = strings.TrimSpace(s)
	}
	return profile, nil
}

// ApplyProfilePatch merges raw into current. Only allowed profile fields may
// be changed, and a required field cannot be cleared. Keys absent from raw
// keep their current value.
func (v *RegistrationValidator) ApplyProfilePatch(current domain.AccountProfile, raw map[string]any) (domain.AccountProfile, error) {
	patched := current
	fields := profileFields(&patched)

	var unknown []string
	for k := range raw {
		if _, ok := v.allowed[k]; !ok || !isProfileField(fields, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.AccountProfile{}, domain.NewValidationError("unknown key: %s", strings.Join(unknown, ", "))
	}

	for _, f := range fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		if value == nil {
			*f.dst = ""
			continue
		}
		s, ok := value.(string)
		if !ok {
			return domain.AccountProfile{}, domain.NewValidationError("invalid value for %s: expected a string", f.key)
		}
		*f.dst = strings.TrimSpace(s)
	}

	var missing []string
	for _, k := range v.required {
		for _, f := range fields {
			if f.key == k && *f.dst == "" {
				missing = append(missing, k)
			}
		}
	}
	if len(missing) > 0 {
		return domain.AccountProfile{}, domain.NewValidationError("missing required keys: %s", strings.Join(missing, ", "))
	}
	return patched, nil
}

type profileField struct {
	key string
	dst *string
}

func profileFields(p *domain.AccountProfile) []profileField {
	return []profileField{
		{"domain", &p.Domain},
		{"email_account_contact", &p.EmailAccountContact},
		{"email_customer_contact", &p.EmailCustomerContact},
		{"name", &p.Name},
	}
}

func isProfileField(fields []profileField, key string) bool {
	for _, f := range fields {
		if f.key == key {
			return true
		}
	}
	return false
}

// Register validates raw and persists the new account together with an
// account.registered event.
func (v *RegistrationValidator) Register(ctx context.Context, raw map[string]any) (*Registration, error) {
	profile, err := v.Validate(raw)
	if err != nil {
		return nil, err
	}

	token, err := v.newToken()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), v.bcryptCost)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("failed to hash credential: %w", err))
	}

	now := v.now()
	account := &domain.Account{
		ID:                   util.GenerateUUID(),
		Domain:               profile.Domain,
		EmailAccountContact:  profile.EmailAccountContact,
		EmailCustomerContact: profile.EmailCustomerContact,
		Name:                 profile.Name,
		CredentialHash:       string(hash),
		Settings:             v.defaultSettings,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = v.transactor.WithinTx(ctx, func(q domain.Querier) error {
		if err := v.accounts.CreateAccountTx(ctx, q, account); err != nil {
			return err
		}
		msg, err := newAccountOutboxMessage(v.topic, account.ID, event.TypeAccountRegistered, event.AccountRegisteredEvent{
			AccountID: account.ID,
			Domain:    account.Domain,
			Name:      account.Name,
			Timestamp: now,
		}, now)
		if err != nil {
			return err
		}
		return v.outbox.CreateMessageTx(ctx, q, msg)
	})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	v.logger.Info("Account registered", zap.String("account_id", account.ID), zap.String("domain", account.Domain))
	return &Registration{Account: withoutCredential(account), AuthToken: token}, nil
}

func present(raw map[string]any, key string) bool {
	value, ok := raw[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func withoutCredential(a *domain.Account) *domain.Account {
	cp := *a
	cp.CredentialHash = ""
	return &cp
}
