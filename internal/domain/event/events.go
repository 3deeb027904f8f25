package event

import "time"

const (
	TypeTransactionCreated = "transaction.created"
	TypeTransactionUpdated = "transaction.updated"

	TypeAccountRegistered      = "account.registered"
	TypeAccountSettingsUpdated = "account.settings_updated"
)

// TransactionEvent is published by the payment processor whenever a
// transaction is recorded or its status or validity changes.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	OrderID       string    `json:"order_id"`
	TxType        string    `json:"tx_type"`
	Status        string    `json:"status"`
	Valid         *bool     `json:"valid,omitempty"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

type AccountRegisteredEvent struct {
	AccountID string    `json:"account_id"`
	Domain    string    `json:"domain,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AccountSettingsUpdatedEvent struct {
	AccountID   string    `json:"account_id"`
	ChangedKeys []string  `json:"changed_keys"`
	Timestamp   time.Time `json:"timestamp"`
}
