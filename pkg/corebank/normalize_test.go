package corebank

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lorettabank/feed-service/internal/domain"
)

func TestAsString_CoercesWireValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string is trimmed", value: "  hello  ", want: "hello"},
		{name: "number renders as digits", value: json.Number("12345"), want: "12345"},
		{name: "nil degrades to empty", value: nil, want: ""},
		{name: "record degrades to empty", value: map[string]any{}, want: ""},
		{name: "bool degrades to empty", value: true, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asString(tt.value); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAsDecimal_CoercesNumbersAndNumericStrings(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "json number", value: json.Number("1234.56"), want: "1234.56"},
		{name: "numeric string", value: " 99.95 ", want: "99.95"},
		{name: "garbage falls back", value: "not-a-number", want: "0"},
		{name: "nil falls back", value: nil, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asDecimal(tt.value, decimal.Zero)
			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAsTime_ParsesObservedFormats(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{
			name:  "rfc3339",
			value: "2024-03-10T12:30:00Z",
			want:  time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "datetime without zone",
			value: "2024-03-10T12:30:00",
			want:  time.Date(2024, 3, 10, 12, 30, 0, 0, time.Local),
		},
		{
			name:  "space-separated datetime",
			value: "2024-03-10 12:30:00",
			want:  time.Date(2024, 3, 10, 12, 30, 0, 0, time.Local),
		},
		{
			name:  "bare date",
			value: "2024-03-10",
			want:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local),
		},
		{
			name:  "epoch seconds",
			value: json.Number("1710072000"),
			want:  time.Unix(1710072000, 0),
		},
		{
			name:  "epoch milliseconds",
			value: json.Number("1710072000000"),
			want:  time.UnixMilli(1710072000000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asTime(tt.value)
			if !ok {
				t.Fatalf("expected a parsed time")
			}
			if !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAsTime_RejectsUnparsableValues(t *testing.T) {
	for _, value := range []any{"", "  ", "soon", nil, true} {
		if _, ok := asTime(value); ok {
			t.Fatalf("expected %v not to parse", value)
		}
	}
}

func TestNormalizeTransaction_AppliesDefaults(t *testing.T) {
	tx := normalizeTransaction(map[string]any{
		"id":     json.Number("42"),
		"amount": "150.75",
		"type":   "transfer",
	})

	if tx.ID != "42" {
		t.Fatalf("expected numeric id rendered as string, got %q", tx.ID)
	}
	if tx.Amount.String() != "150.75" {
		t.Fatalf("expected amount 150.75, got %s", tx.Amount)
	}
	if tx.Currency != domain.HomeCurrency {
		t.Fatalf("expected home currency default, got %q", tx.Currency)
	}
	if tx.Type != domain.TransactionTypeTransfer {
		t.Fatalf("expected upper-cased type, got %q", tx.Type)
	}
	if tx.CreatedAtKnown {
		t.Fatalf("expected CreatedAtKnown false for a missing timestamp")
	}
	if tx.CreatedAt.IsZero() {
		t.Fatalf("expected a fetch-time fallback timestamp")
	}
}

func TestNormalizeTransaction_AlternateAccountFieldNames(t *testing.T) {
	tx := normalizeTransaction(map[string]any{
		"transactionId": "tx-1",
		"fromAccountId": "acct-src",
		"toAccountId":   "acct-dst",
		"createdAt":     "2024-03-10T12:00:00Z",
	})

	if tx.ID != "tx-1" {
		t.Fatalf("expected id from transactionId, got %q", tx.ID)
	}
	if tx.SourceAccountID != "acct-src" || tx.TargetAccountID != "acct-dst" {
		t.Fatalf("expected alternate account fields read, got %q/%q", tx.SourceAccountID, tx.TargetAccountID)
	}
	if !tx.CreatedAtKnown {
		t.Fatalf("expected CreatedAtKnown true for a parsable timestamp")
	}
}

func TestNormalizeTransaction_NonRecordDegradesToZeroValue(t *testing.T) {
	tx := normalizeTransaction("garbage")
	if tx.ID != "" {
		t.Fatalf("expected empty id, got %q", tx.ID)
	}
	if !tx.Amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", tx.Amount)
	}
	if tx.Currency != domain.HomeCurrency {
		t.Fatalf("expected home currency default, got %q", tx.Currency)
	}
}

func TestNormalizeAccount_AppliesDefaults(t *testing.T) {
	account := normalizeAccount(map[string]any{
		"accountId": json.Number("7"),
		"number":    "1000234567",
		"balance":   json.Number("2500.00"),
		"currency":  "zar",
	})

	if account.ID != "7" {
		t.Fatalf("expected id from accountId, got %q", account.ID)
	}
	if account.AccountNumber != "1000234567" {
		t.Fatalf("expected account number from the number field, got %q", account.AccountNumber)
	}
	if account.Currency != "ZAR" {
		t.Fatalf("expected upper-cased currency, got %q", account.Currency)
	}
	if account.Status != domain.AccountStatusActive {
		t.Fatalf("expected default active status, got %q", account.Status)
	}
	if account.Balance.String() != "2500" {
		t.Fatalf("expected balance 2500, got %s", account.Balance)
	}
}

func TestNormalizeCustomer_OmitsUnparsableCreatedAt(t *testing.T) {
	customer := normalizeCustomer(map[string]any{
		"id":          "cust-1",
		"firstName":   "Naledi",
		"lastName":    "Dlamini",
		"phoneNumber": "+27821234567",
		"createdAt":   "whenever",
	})

	if customer.Phone != "+27821234567" {
		t.Fatalf("expected phone from phoneNumber, got %q", customer.Phone)
	}
	if customer.CreatedAt != nil {
		t.Fatalf("expected nil CreatedAt for an unparsable value, got %v", customer.CreatedAt)
	}
}

func TestNormalizeAuthSession_TokenFieldVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "token", payload: map[string]any{"token": "t-1"}},
		{name: "accessToken", payload: map[string]any{"accessToken": "t-1"}},
		{name: "jwt", payload: map[string]any{"jwt": "t-1"}},
		{name: "idToken", payload: map[string]any{"idToken": "t-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := normalizeAuthSession(tt.payload)
			if err != nil {
				t.Fatalf("normalizeAuthSession returned error: %v", err)
			}
			if session.Token != "t-1" {
				t.Fatalf("expected token t-1, got %q", session.Token)
			}
		})
	}
}

func TestNormalizeAuthSession_MissingTokenIsAnError(t *testing.T) {
	_, err := normalizeAuthSession(map[string]any{"user": map[string]any{"id": "u-1"}})
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestNormalizeAuthSession_UserShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		wantID   string
		wantName string
		wantRole string
	}{
		{
			name: "nested user record",
			payload: map[string]any{
				"token": "t-1",
				"user":  map[string]any{"id": "u-1", "fullName": "Thabo Mokoena", "role": "ADMIN"},
			},
			wantID:   "u-1",
			wantName: "Thabo Mokoena",
			wantRole: domain.RoleAdmin,
		},
		{
			name: "top-level user fields",
			payload: map[string]any{
				"token": "t-1", "id": "u-2", "firstName": "Zanele", "lastName": "Khumalo",
			},
			wantID:   "u-2",
			wantName: "Zanele Khumalo",
			wantRole: domain.RoleCustomer,
		},
		{
			name: "username fallback and unknown role",
			payload: map[string]any{
				"token": "t-1",
				"user":  map[string]any{"id": "u-3", "username": "sipho", "role": "superuser"},
			},
			wantID:   "u-3",
			wantName: "sipho",
			wantRole: domain.RoleCustomer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := normalizeAuthSession(tt.payload)
			if err != nil {
				t.Fatalf("normalizeAuthSession returned error: %v", err)
			}
			if session.User.ID != tt.wantID {
				t.Fatalf("expected user id %q, got %q", tt.wantID, session.User.ID)
			}
			if session.User.FullName != tt.wantName {
				t.Fatalf("expected full name %q, got %q", tt.wantName, session.User.FullName)
			}
			if session.User.Role != tt.wantRole {
				t.Fatalf("expected role %q, got %q", tt.wantRole, session.User.Role)
			}
		})
	}
}
