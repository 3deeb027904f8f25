package domain

// Coin is an indivisible unit of value in one currency. The sum of an
// account's coin values per currency is its balance; there is no stored
// balance counter.
type Coin struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Value     int64  `json:"value"`
}

type Balance struct {
	Currency      string `json:"currency"`
	Value         int64  `json:"value"`
	NumberOfCoins int    `json:"number_of_coins"`
}
