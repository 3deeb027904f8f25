package domain

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

// Transaction is a financial movement recorded by the payment processor.
// AccountID and OrderID never change once stored.
type Transaction struct {
	ID        string            `json:"id"`
	Seq       int64             `json:"seq"`
	AccountID string            `json:"account_id"`
	OrderID   string            `json:"order_id"`
	Type      string            `json:"type"`
	Status    TransactionStatus `json:"status"`
	Valid     bool              `json:"valid"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TransactionFilter describes a lookup over the transaction log. Nil fields
// are not applied and the store default is used instead.
type TransactionFilter struct {
	AccountID string
	ID        *string
	OrderID   *string
	Type      *string
	Status    *string
	Offset    *int
	Limit     *int
	Before    *time.Time
	After     *time.Time
	Order     *SortOrder
	OrderBy   *string
	OnlyValid *bool
}
