/**
 * @description
 * This file contains the HTTP handlers for the feed-service's API endpoints.
 * Handlers parse incoming requests, call the aggregation service, and write
 * JSON responses. Error mapping follows the taxonomy of the core: validation
 * failures become 400s before any upstream call, upstream authorization
 * failures surface as 401s (the session guard has already cleared the
 * session by then), upstream API errors keep their status and message, and
 * transport failures become 502s.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, pkg/corebank: Service logic, models, and
 *   upstream error types.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lorettabank/feed-service/internal/app"
	"github.com/lorettabank/feed-service/internal/domain"
	"github.com/lorettabank/feed-service/pkg/corebank"
)

// FeedHandlers holds the aggregation service that handlers will use.
type FeedHandlers struct {
	service *app.Service
}

// NewFeedHandlers creates a new instance of FeedHandlers.
func NewFeedHandlers(service *app.Service) *FeedHandlers {
	return &FeedHandlers{service: service}
}

// mapServiceError translates a service failure into an HTTP status and a
// human-readable message.
func mapServiceError(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, corebank.ErrUnauthorized):
		return http.StatusUnauthorized, "Session expired. Please log in again."
	case errors.Is(err, app.ErrForbidden):
		return http.StatusForbidden, "This operation requires a privileged role."
	case errors.Is(err, domain.ErrTransferAccountRequired),
		errors.Is(err, domain.ErrTransferSameAccount),
		errors.Is(err, domain.ErrTransferAmountNotPositive),
		errors.Is(err, domain.ErrAccountCustomerRequired),
		errors.Is(err, domain.ErrAccountTypeRequired),
		errors.Is(err, domain.ErrAccountDepositNegative):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, corebank.ErrTokenMissing):
		return http.StatusBadGateway, "Authentication token missing in response."
	}

	var apiErr *corebank.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = fallback
		}
		return apiErr.Status, message
	}

	return http.StatusBadGateway, fallback
}

func (h *FeedHandlers) handleError(w http.ResponseWriter, endpoint string, err error, fallback string) {
	status, message := mapServiceError(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Printf("level=error component=api endpoint=%s outcome=failed err=%v", endpoint, err)
	}
	h.writeError(w, status, message)
}

// LoginHandler proxies sign-in to the upstream and returns the normalized session.
func (h *FeedHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	authSession, err := h.service.Login(r.Context(), payload)
	if err != nil {
		h.handleError(w, "login", err, "Unable to sign in.")
		return
	}
	h.writeJSON(w, http.StatusOK, authSession)
}

// RegisterHandler proxies registration to the upstream and returns the
// normalized session.
func (h *FeedHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	authSession, err := h.service.Register(r.Context(), payload)
	if err != nil {
		h.handleError(w, "register", err, "Unable to register account.")
		return
	}
	h.writeJSON(w, http.StatusCreated, authSession)
}

// LogoutHandler invalidates the caller's session state.
func (h *FeedHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}
	if err := h.service.Logout(r.Context(), principal); err != nil {
		log.Printf("level=warn component=api endpoint=logout msg=\"session invalidate failed\" err=%v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccountsHandler returns every account in the caller's scope.
func (h *FeedHandlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), principal)
	if err != nil {
		h.handleError(w, "list_accounts", err, "Unable to load accounts.")
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// CreateAccountHandler opens a new account for a customer.
func (h *FeedHandlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}

	var payload domain.CreateAccountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), principal, payload)
	if err != nil {
		h.handleError(w, "create_account", err, "Unable to create account.")
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// ListCustomersHandler returns every customer. Privileged roles only.
func (h *FeedHandlers) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}

	customers, err := h.service.ListCustomers(r.Context(), principal)
	if err != nil {
		h.handleError(w, "list_customers", err, "Unable to load customers.")
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// ListTransactionsHandler serves one page of the unified transaction feed.
func (h *FeedHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}

	query := r.URL.Query()
	page, err := parseOptionalNonNegativeInt(query.Get("page"), 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	size, err := parseOptionalNonNegativeInt(query.Get("size"), app.DefaultPageSize)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid size")
		return
	}

	filters := domain.TransactionFilters{
		Page:      page,
		Size:      size,
		Type:      strings.TrimSpace(query.Get("type")),
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
		AccountID: strings.TrimSpace(query.Get("accountId")),
	}

	feed, err := h.service.ListTransactions(r.Context(), principal, filters)
	if err != nil {
		h.handleError(w, "list_transactions", err, "Unable to load transactions.")
		return
	}
	h.writeJSON(w, http.StatusOK, feed)
}

// TransferHandler submits a money movement. The Idempotency-Key header is
// forwarded unchanged; when the caller omits it the service generates one
// for this submission attempt.
func (h *FeedHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get principal from context")
		return
	}

	var payload domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	tx, err := h.service.Transfer(r.Context(), principal, payload, idempotencyKey)
	if err != nil {
		h.handleError(w, "transfer", err, "Transfer failed.")
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

func parseOptionalNonNegativeInt(raw string, def int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 0 {
		return 0, errors.New("invalid non-negative integer")
	}
	return value, nil
}

// writeJSON is a helper for writing JSON responses.
func (h *FeedHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *FeedHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
