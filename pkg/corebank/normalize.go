/**
 * @description
 * Value normalization for the core-banking API. Upstream responses are loosely
 * typed: identifiers arrive as strings or numbers, amounts as numbers or
 * numeric strings, timestamps in several formats, and any field may be absent.
 * Every function here is total: malformed input degrades to a documented
 * default instead of failing, so a bad upstream record can never abort a page.
 *
 * @notes
 * - Raw payloads are decoded with json.Number so amounts reach
 *   shopspring/decimal without passing through a float64.
 */

package corebank

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lorettabank/feed-service/internal/domain"
)

// ErrTokenMissing indicates an auth response that carried no usable token
// under any of the recognized field names.
var ErrTokenMissing = errors.New("corebank: authentication token missing in response")

// asRecord returns the value as a JSON object, or an empty one for anything else.
func asRecord(v any) map[string]any {
	if rec, ok := v.(map[string]any); ok {
		return rec
	}
	return map[string]any{}
}

// asString coerces a wire value to a trimmed string. Non-string input
// (including numbers) is rendered when unambiguous, otherwise empty.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// asDecimal coerces numeric or numeric-string input to a decimal. Unparsable
// or non-finite values fall back to the supplied default.
func asDecimal(v any, def decimal.Decimal) decimal.Decimal {
	switch n := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return d
		}
	case float64:
		// Only reachable when a payload was decoded without UseNumber.
		return decimal.NewFromFloat(n)
	}
	return def
}

// asInt coerces numeric or numeric-string input to an int, defaulting when
// the value is absent or unparsable.
func asInt(v any, def int) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return int(d.IntPart())
		}
	case float64:
		return int(n)
	}
	return def
}

// timeLayouts are the formats the upstream has been observed to emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// asTime parses a wire timestamp. Numeric values are treated as epoch
// seconds, or epoch milliseconds when too large to be seconds.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
				return parsed, true
			}
		}
	case json.Number:
		if i, err := t.Int64(); err == nil && i > 0 {
			if i > 1_000_000_000_000 {
				return time.UnixMilli(i), true
			}
			return time.Unix(i, 0), true
		}
	}
	return time.Time{}, false
}

// firstPresent returns the first non-empty string among the named fields.
func firstPresent(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

// normalizeAccount builds a canonical account record from an untyped payload.
func normalizeAccount(payload any) domain.Account {
	rec := asRecord(payload)
	currency := strings.ToUpper(asString(rec["currency"]))
	if currency == "" {
		currency = domain.HomeCurrency
	}
	status := strings.ToUpper(asString(rec["status"]))
	if status == "" {
		status = domain.AccountStatusActive
	}
	createdAt, ok := asTime(rec["createdAt"])
	if !ok {
		createdAt = time.Now()
	}
	return domain.Account{
		ID:            firstPresent(rec, "id", "accountId"),
		AccountNumber: firstPresent(rec, "accountNumber", "number"),
		AccountType:   asString(rec["accountType"]),
		Balance:       asDecimal(rec["balance"], decimal.Zero),
		Currency:      currency,
		CustomerID:    asString(rec["customerId"]),
		Status:        status,
		CreatedAt:     createdAt,
	}
}

// normalizeTransaction builds a canonical transaction record. A missing or
// unparsable timestamp falls back to now so the federated sort stays stable;
// CreatedAtKnown records which case applied.
func normalizeTransaction(payload any) domain.Transaction {
	rec := asRecord(payload)
	currency := strings.ToUpper(asString(rec["currency"]))
	if currency == "" {
		currency = domain.HomeCurrency
	}
	createdAt, known := asTime(rec["createdAt"])
	if !known {
		createdAt = time.Now()
	}
	return domain.Transaction{
		ID:              firstPresent(rec, "id", "transactionId"),
		AccountID:       asString(rec["accountId"]),
		SourceAccountID: firstPresent(rec, "sourceAccountId", "fromAccountId"),
		TargetAccountID: firstPresent(rec, "targetAccountId", "toAccountId"),
		Amount:          asDecimal(rec["amount"], decimal.Zero),
		Currency:        currency,
		Type:            strings.ToUpper(asString(rec["type"])),
		Description:     asString(rec["description"]),
		Reference:       asString(rec["reference"]),
		CreatedAt:       createdAt,
		CreatedAtKnown:  known,
	}
}

// normalizeCustomer builds a canonical customer record.
func normalizeCustomer(payload any) domain.Customer {
	rec := asRecord(payload)
	customer := domain.Customer{
		ID:        firstPresent(rec, "id", "customerId"),
		FirstName: asString(rec["firstName"]),
		LastName:  asString(rec["lastName"]),
		Email:     asString(rec["email"]),
		Phone:     firstPresent(rec, "phone", "phoneNumber"),
	}
	if createdAt, ok := asTime(rec["createdAt"]); ok {
		customer.CreatedAt = &createdAt
	}
	return customer
}

// normalizeAuthSession extracts the bearer token and the signed-in user from
// an auth response. The token may sit under several names; the user record may
// be nested or inlined at the top level. A missing token is the one condition
// treated as an error; there is no session without one.
func normalizeAuthSession(payload any) (domain.AuthSession, error) {
	rec := asRecord(payload)
	token := firstPresent(rec, "token", "accessToken", "jwt", "idToken")
	if token == "" {
		return domain.AuthSession{}, ErrTokenMissing
	}

	userSource := rec
	for _, key := range []string{"user", "profile", "account"} {
		if nested, ok := rec[key].(map[string]any); ok {
			userSource = nested
			break
		}
	}

	fullName := asString(userSource["fullName"])
	if fullName == "" {
		parts := []string{}
		for _, key := range []string{"firstName", "lastName"} {
			if part := asString(userSource[key]); part != "" {
				parts = append(parts, part)
			}
		}
		fullName = strings.Join(parts, " ")
	}
	if fullName == "" {
		fullName = firstPresent(userSource, "name", "username")
	}

	id := asString(userSource["id"])
	if id == "" {
		id = asString(rec["userId"])
	}
	email := asString(userSource["email"])
	if email == "" {
		email = asString(rec["email"])
	}
	role := asString(userSource["role"])
	if role == "" {
		role = asString(rec["role"])
	}

	return domain.AuthSession{
		Token: token,
		User: domain.AuthUser{
			ID:       id,
			FullName: fullName,
			Email:    email,
			Role:     domain.NormalizeRole(role),
		},
	}, nil
}
