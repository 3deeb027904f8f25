package domain

import "time"

type InboxMessageStatus string

const (
	InboxStatusNew       InboxMessageStatus = "NEW"
	InboxStatusProcessed InboxMessageStatus = "PROCESSED"
	InboxStatusFailed    InboxMessageStatus = "FAILED"
)

// InboxMessage records a consumed transaction event so redelivered events
// are applied once.
type InboxMessage struct {
	ID          string
	EventType   string
	Payload     []byte
	Status      InboxMessageStatus
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}
