package panel

import (
	"go.uber.org/zap"

	"panel/internal/domain"
)

type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityError Severity = "ERROR"
)

type Message struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result is what every panel operation hands back to the transport layer.
// Err keeps the original error so the caller can pick a status code; it is
// never serialized.
type Result[T any] struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
	Body     T         `json:"body"`
	Err      error     `json:"-"`
}

const (
	msgRetrieveTransactions = "unable to retrieve transactions"
	msgRetrieveTransaction  = "unable to retrieve transaction"
	msgRetrieveBalances     = "unable to retrieve balances"
	msgRetrieveAccount      = "unable to retrieve account"
	msgUpdateAccount        = "unable to update account"
	msgRetrieveSettings     = "unable to retrieve account's settings"
	msgUpdateSettings       = "unable to update account's settings"
	msgRestoreSettings      = "unable to reload account's settings"
	msgCreateAccount        = "unable to create account"
	msgRetrieveOverview     = "unable to retrieve account overview"
)

func succeed[T any](body T, info ...string) Result[T] {
	res := Result[T]{Success: true, Body: body, Messages: []Message{}}
	for _, m := range info {
		res.Messages = append(res.Messages, Message{Severity: SeverityInfo, Message: m})
	}
	return res
}

// fail builds a failed result. Validation messages are passed through as is;
// any other error is reported with the generic message and only logged in
// detail.
func fail[T any](logger *zap.Logger, err error, generic string) Result[T] {
	res := Result[T]{Success: false, Err: err}

	e, ok := domain.AsError(err)
	if ok && e.Kind == domain.KindValidation {
		logger.Info("Request rejected", zap.String("reason", e.UserMessage))
		res.Messages = []Message{{Severity: SeverityError, Message: e.UserMessage}}
		return res
	}

	logger.Error(generic, zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
	res.Messages = []Message{{Severity: SeverityError, Message: generic}}
	if ok && e.Reconciliation != nil {
		res.Messages = append(res.Messages, Message{Severity: SeverityError, Message: msgRestoreSettings})
	}
	return res
}
