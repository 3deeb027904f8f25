package panel

import (
	"encoding/json"
	"fmt"
	"time"

	"panel/internal/domain"
	"panel/internal/util"
)

const aggregateTypeAccount = "account"

func newAccountOutboxMessage(topic, accountID, messageType string, payload any, now time.Time) (*domain.OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event for account %s: %w", messageType, accountID, err)
	}
	return &domain.OutboxMessage{
		ID:            util.GenerateUUID(),
		AggregateID:   accountID,
		AggregateType: aggregateTypeAccount,
		MessageType:   messageType,
		Topic:         topic,
		Key:           accountID,
		Payload:       body,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     now,
	}, nil
}
