/**
 * @description
 * This package provides the client for the remote core-banking API. It owns
 * the transport concerns the rest of the service must never see: request
 * construction, bearer-token propagation, envelope unwrapping, value
 * normalization, and the authorization-failure hook that force-clears the
 * caller's session exactly once per 401 response.
 *
 * The upstream exposes transactions only per account, with no federated
 * endpoint; the aggregation over this client lives in internal/app.
 *
 * @dependencies
 * - net/http, encoding/json: Standard Go libraries for transport and decoding.
 * - internal/domain: Canonical record types produced by normalization.
 */
package corebank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lorettabank/feed-service/internal/domain"
)

// ErrUnauthorized is returned for any upstream 401. The configured
// unauthorized hook has already run by the time a caller sees this error.
var ErrUnauthorized = errors.New("corebank: unauthorized")

// APIError carries a human-readable upstream failure message. The message is
// taken from a string body or from the body's "message"/"error" fields, with
// a status-code fallback when neither is present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("corebank: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("corebank: request failed (status %d)", e.Status)
}

// Client is a client for the core-banking API. It holds no ambient
// credentials: every call carries the session token of the caller it serves.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	onUnauthorized func(token string)
}

// NewClient creates a core-banking API client. The timeout is the transport
// deadline; there is no separate operation-level timeout in this layer.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetUnauthorizedHook installs the session-guard callback. It runs once per
// failing response, before ErrUnauthorized is returned, and receives the
// token the rejected request carried. The failed request is never retried.
func (c *Client) SetUnauthorizedHook(fn func(token string)) {
	c.onUnauthorized = fn
}

// do executes one upstream request and decodes the response body with
// json.Number so numeric wire values survive untouched until normalization.
func (c *Client) do(ctx context.Context, method, path, token string, body any, extraHeaders map[string]string) (any, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Printf("level=warn component=corebank_client method=%s path=%s status=401 msg=\"authorization failure; clearing session\"", method, path)
		if c.onUnauthorized != nil {
			c.onUnauthorized(token)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: extractErrorMessage(respBody)}
		log.Printf("level=warn component=corebank_client method=%s path=%s status=%d msg=%q", method, path, resp.StatusCode, apiErr.Message)
		return nil, apiErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return payload, nil
}

// extractErrorMessage pulls a human-readable message out of an upstream error
// body: a plain string body wins, then "message", then "error".
func extractErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return strings.TrimSpace(string(trimmed))
	}

	switch v := payload.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if msg := asString(v["message"]); msg != "" {
			return msg
		}
		if msg := asString(v["error"]); msg != "" {
			return msg
		}
	}
	return ""
}

// Login authenticates against the upstream and normalizes the session envelope.
func (c *Client) Login(ctx context.Context, payload domain.LoginPayload) (domain.AuthSession, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, nil)
	if err != nil {
		return domain.AuthSession{}, err
	}
	return normalizeAuthSession(unwrap(raw))
}

// Register creates an upstream identity and normalizes the session envelope.
func (c *Client) Register(ctx context.Context, payload domain.RegisterPayload) (domain.AuthSession, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/register", "", payload, nil)
	if err != nil {
		return domain.AuthSession{}, err
	}
	return normalizeAuthSession(unwrap(raw))
}

// GetMyProfile fetches the calling customer's own profile.
func (c *Client) GetMyProfile(ctx context.Context, token string) (domain.Customer, error) {
	raw, err := c.do(ctx, http.MethodGet, "/customers/me", token, nil, nil)
	if err != nil {
		return domain.Customer{}, err
	}
	return normalizeCustomer(unwrap(raw)), nil
}

// ListCustomers fetches every customer visible to a privileged caller.
func (c *Client) ListCustomers(ctx context.Context, token string) ([]domain.Customer, error) {
	raw, err := c.do(ctx, http.MethodGet, "/customers", token, nil, nil)
	if err != nil {
		return nil, err
	}
	items := collectionItems(raw)
	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, normalizeCustomer(item))
	}
	return customers, nil
}

// ListCustomerAccounts fetches one customer's accounts in upstream order.
func (c *Client) ListCustomerAccounts(ctx context.Context, token, customerID string) ([]domain.Account, error) {
	raw, err := c.do(ctx, http.MethodGet, "/accounts/customer/"+url.PathEscape(customerID), token, nil, nil)
	if err != nil {
		return nil, err
	}
	items := collectionItems(raw)
	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		accounts = append(accounts, normalizeAccount(item))
	}
	return accounts, nil
}

var numericID = regexp.MustCompile(`^[0-9]+$`)

// CreateAccount posts a normalized account creation request: the currency is
// upper-cased and a digits-only customer id is coerced to a JSON number,
// since the upstream account store keys customers numerically.
func (c *Client) CreateAccount(ctx context.Context, token string, payload domain.CreateAccountPayload) (domain.Account, error) {
	body := map[string]any{
		"customerId":  payload.CustomerID,
		"accountType": payload.AccountType,
	}
	if numericID.MatchString(payload.CustomerID) {
		body["customerId"] = json.Number(payload.CustomerID)
	}
	if currency := strings.ToUpper(strings.TrimSpace(payload.Currency)); currency != "" {
		body["currency"] = currency
	}
	if payload.InitialDeposit.IsPositive() {
		body["initialDeposit"] = payload.InitialDeposit
	}

	raw, err := c.do(ctx, http.MethodPost, "/accounts", token, body, nil)
	if err != nil {
		return domain.Account{}, err
	}
	return normalizeAccount(unwrap(raw)), nil
}

// ListAccountTransactions fetches one upstream page of one account's
// transactions, canonicalizing whichever collection shape comes back.
func (c *Client) ListAccountTransactions(ctx context.Context, token, accountID string, page, size int) (domain.Page[domain.Transaction], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	path := "/transactions/account/" + url.PathEscape(accountID) + "?" + query.Encode()

	raw, err := c.do(ctx, http.MethodGet, path, token, nil, nil)
	if err != nil {
		return domain.Page[domain.Transaction]{}, err
	}

	paged := toPage(raw)
	content := make([]domain.Transaction, 0, len(paged.Content))
	for _, item := range paged.Content {
		content = append(content, normalizeTransaction(item))
	}
	return domain.Page[domain.Transaction]{
		Content:       content,
		Page:          paged.Page,
		Size:          paged.Size,
		TotalElements: paged.TotalElements,
		TotalPages:    paged.TotalPages,
		First:         paged.First,
		Last:          paged.Last,
	}, nil
}

// SubmitTransfer posts a money movement with the caller-supplied idempotency
// token. The upstream deduplicates retried submissions bearing the same
// token; this client's only obligation is to attach it unchanged.
func (c *Client) SubmitTransfer(ctx context.Context, token string, req domain.TransferRequest, idempotencyKey string) (domain.Transaction, error) {
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	raw, err := c.do(ctx, http.MethodPost, "/transfers", token, req, headers)
	if err != nil {
		return domain.Transaction{}, err
	}
	return normalizeTransaction(unwrap(raw)), nil
}
