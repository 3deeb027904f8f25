package domain

import (
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountAlreadyExists = errors.New("account already exists")

// Account is an account holder of the panel. CredentialHash is written once at
// registration and is never read back by query paths.
type Account struct {
	ID                   string    `json:"id"`
	Domain               string    `json:"domain,omitempty"`
	EmailAccountContact  string    `json:"email_account_contact,omitempty"`
	EmailCustomerContact string    `json:"email_customer_contact,omitempty"`
	Name                 string    `json:"name,omitempty"`
	CredentialHash       string    `json:"-"`
	Settings             Settings  `json:"settings"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AccountProfile holds the registration fields projected from raw input.
type AccountProfile struct {
	Domain               string
	EmailAccountContact  string
	EmailCustomerContact string
	Name                 string
}
