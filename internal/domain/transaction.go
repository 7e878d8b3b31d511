/**
 * @description
 * This file defines the core domain models for the feed-service: the canonical
 * transaction record produced by upstream normalization, the filter criteria
 * accepted by the federated feed, and the transfer request DTO.
 *
 * @notes
 * - Records are immutable value objects: they are created by normalization at
 *   fetch time and only ever replaced by a re-fetch, never mutated in place.
 * - Amounts use shopspring/decimal to stay exact for financial values that
 *   arrive from the wire as either JSON numbers or numeric strings.
 */

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types known to the feed. Unrecognized upstream values are passed
// through as-is rather than rejected.
const (
	TransactionTypeDebit      = "DEBIT"
	TransactionTypeCredit     = "CREDIT"
	TransactionTypeTransfer   = "TRANSFER"
	TransactionTypePayment    = "PAYMENT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeDeposit    = "DEPOSIT"
)

// Transaction is the canonical ledger record presented by the federated feed.
// The ID is the deduplication key: two records with the same ID are the same
// logical transaction regardless of which per-account fetch produced them.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"accountId,omitempty"`
	SourceAccountID string          `json:"sourceAccountId,omitempty"`
	TargetAccountID string          `json:"targetAccountId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Type            string          `json:"type"`
	Description     string          `json:"description,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`

	// CreatedAtKnown reports whether the upstream supplied a parsable
	// timestamp. When false, CreatedAt holds the fetch-time fallback that
	// keeps sort order stable, and date-range filters must not exclude the
	// row on either bound.
	CreatedAtKnown bool `json:"-"`
}

// TransactionFilters carries the criteria for one page of the federated feed.
// A non-empty AccountID scopes the request to a single upstream account page.
type TransactionFilters struct {
	Page      int
	Size      int
	Type      string
	StartDate string // calendar date, YYYY-MM-DD
	EndDate   string // calendar date, YYYY-MM-DD
	AccountID string
}

// TransferRequest is the DTO for a money-movement submission. The idempotency
// token travels separately (one token per user-initiated attempt, reused
// across retries of that same attempt but never across distinct actions).
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Description   string          `json:"description,omitempty"`
}

var (
	// ErrTransferAccountRequired indicates a missing source or destination account.
	ErrTransferAccountRequired = errors.New("source and destination accounts are required")
	// ErrTransferSameAccount indicates source and destination are identical.
	ErrTransferSameAccount = errors.New("source and destination accounts must differ")
	// ErrTransferAmountNotPositive indicates a zero or negative transfer amount.
	ErrTransferAmountNotPositive = errors.New("transfer amount must be positive")
)

// Validate rejects malformed transfer requests before any network call is made.
func (r TransferRequest) Validate() error {
	from := strings.TrimSpace(r.FromAccountID)
	to := strings.TrimSpace(r.ToAccountID)
	if from == "" || to == "" {
		return ErrTransferAccountRequired
	}
	if from == to {
		return ErrTransferSameAccount
	}
	if !r.Amount.IsPositive() {
		return ErrTransferAmountNotPositive
	}
	return nil
}
