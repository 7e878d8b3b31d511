/**
 * @description
 * Account and customer records as normalized from the upstream core-banking
 * API, plus the account creation payload accepted by the service surface.
 */

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HomeCurrency is the fixed default applied when the upstream omits a
// currency code.
const HomeCurrency = "ZAR"

// AccountStatusActive is the default status applied when the upstream omits one.
const AccountStatusActive = "ACTIVE"

// Account is an account record owned by exactly one customer. The ID is
// always a non-empty string, even when the upstream supplies a numeric id.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CustomerID    string          `json:"customerId"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Customer is the profile record of one bank customer.
type Customer struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// CreateAccountPayload is the DTO for opening a new account.
type CreateAccountPayload struct {
	CustomerID     string          `json:"customerId"`
	AccountType    string          `json:"accountType"`
	Currency       string          `json:"currency,omitempty"`
	InitialDeposit decimal.Decimal `json:"initialDeposit,omitempty"`
}

var (
	// ErrAccountCustomerRequired indicates a creation request without an owner.
	ErrAccountCustomerRequired = errors.New("customer id is required")
	// ErrAccountTypeRequired indicates a creation request without an account type.
	ErrAccountTypeRequired = errors.New("account type is required")
	// ErrAccountDepositNegative indicates a negative opening deposit.
	ErrAccountDepositNegative = errors.New("initial deposit cannot be negative")
)

// Validate rejects malformed account creation payloads before any network call.
func (p CreateAccountPayload) Validate() error {
	if strings.TrimSpace(p.CustomerID) == "" {
		return ErrAccountCustomerRequired
	}
	if strings.TrimSpace(p.AccountType) == "" {
		return ErrAccountTypeRequired
	}
	if p.InitialDeposit.IsNegative() {
		return ErrAccountDepositNegative
	}
	return nil
}
