/**
 * @description
 * This file contains the core reconciliation logic of the feed-service. The
 * upstream core-banking API exposes transactions only per account; `Service`
 * reassembles them into the unified views the client needs: scope resolution
 * (which customers a caller may see), account aggregation across that scope,
 * and the federated, deduplicated, re-paginated transaction feed.
 *
 * Key behaviors:
 * - Fan-out fetches run concurrently and are awaited jointly; one failing leg
 *   fails the whole aggregate call; no partial results are ever returned.
 * - The single-customer identity lookup happens once per session and is
 *   memoized in the session store.
 * - Transfers carry a caller-supplied idempotency token (generated here when
 *   absent) and emit a completion event for downstream cache invalidation.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup: Joint await with fail-fast semantics.
 * - github.com/google/uuid: Idempotency token generation.
 * - internal/domain, internal/session, pkg/corebank, pkg/events.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lorettabank/feed-service/internal/domain"
	"github.com/lorettabank/feed-service/internal/session"
	"github.com/lorettabank/feed-service/pkg/events"
)

// Defaults for the federated over-fetch heuristic: each account contributes
// its first upstream page sized at max(requestedSize*multiplier, floor).
// A best-effort bound, not an exhaustive fetch: accounts holding more
// unfiltered history than the window captures will under-report totals.
const (
	DefaultOverfetchMultiplier = 3
	DefaultOverfetchFloor      = 50
)

// DefaultPageSize applies when the caller requests no page size.
const DefaultPageSize = 10

// ErrForbidden indicates the caller's role does not grant the operation.
var ErrForbidden = errors.New("operation requires a privileged role")

// CoreBankAPI is the slice of the upstream client the service depends on.
type CoreBankAPI interface {
	Login(ctx context.Context, payload domain.LoginPayload) (domain.AuthSession, error)
	Register(ctx context.Context, payload domain.RegisterPayload) (domain.AuthSession, error)
	GetMyProfile(ctx context.Context, token string) (domain.Customer, error)
	ListCustomers(ctx context.Context, token string) ([]domain.Customer, error)
	ListCustomerAccounts(ctx context.Context, token, customerID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, token string, payload domain.CreateAccountPayload) (domain.Account, error)
	ListAccountTransactions(ctx context.Context, token, accountID string, page, size int) (domain.Page[domain.Transaction], error)
	SubmitTransfer(ctx context.Context, token string, req domain.TransferRequest, idempotencyKey string) (domain.Transaction, error)
}

// Principal identifies the authenticated caller of one request.
type Principal struct {
	Token  string
	UserID string
	Email  string
	Role   string
}

// Scope is the set of customers a caller may see: every customer for
// privileged roles, or exactly one resolved customer id otherwise. An empty
// CustomerID on a single-customer scope means no customer was resolvable.
type Scope struct {
	AllCustomers bool
	CustomerID   string
}

// Service orchestrates the aggregation over the upstream client.
type Service struct {
	bank                CoreBankAPI
	sessions            session.Store
	publisher           events.Publisher
	overfetchMultiplier int
	overfetchFloor      int
}

// NewService creates the aggregation service. Non-positive over-fetch
// parameters fall back to the documented defaults.
func NewService(bank CoreBankAPI, sessions session.Store, publisher events.Publisher, overfetchMultiplier, overfetchFloor int) *Service {
	if overfetchMultiplier < 1 {
		overfetchMultiplier = DefaultOverfetchMultiplier
	}
	if overfetchFloor < 1 {
		overfetchFloor = DefaultOverfetchFloor
	}
	return &Service{
		bank:                bank,
		sessions:            sessions,
		publisher:           publisher,
		overfetchMultiplier: overfetchMultiplier,
		overfetchFloor:      overfetchFloor,
	}
}

// Login authenticates against the upstream and seeds a fresh session entry.
// Any state a previous session held under the same token is replaced, so the
// memoized customer id never leaks across sign-ins.
func (s *Service) Login(ctx context.Context, payload domain.LoginPayload) (domain.AuthSession, error) {
	authSession, err := s.bank.Login(ctx, payload)
	if err != nil {
		return domain.AuthSession{}, err
	}
	if err := s.sessions.Put(ctx, authSession.Token, authSession.User); err != nil {
		log.Printf("level=warn component=app op=login msg=\"session store write failed\" err=%v", err)
	}
	return authSession, nil
}

// Register creates an upstream identity and seeds a fresh session entry.
func (s *Service) Register(ctx context.Context, payload domain.RegisterPayload) (domain.AuthSession, error) {
	authSession, err := s.bank.Register(ctx, payload)
	if err != nil {
		return domain.AuthSession{}, err
	}
	if err := s.sessions.Put(ctx, authSession.Token, authSession.User); err != nil {
		log.Printf("level=warn component=app op=register msg=\"session store write failed\" err=%v", err)
	}
	return authSession, nil
}

// Logout discards all session state for the caller's token.
func (s *Service) Logout(ctx context.Context, p Principal) error {
	return s.sessions.Invalidate(ctx, p.Token)
}

// ExpireSession is the session-guard entry point: it discards the session
// state for a token that just failed authorization and signals the expiry.
// It runs once per failing upstream response.
func (s *Service) ExpireSession(token string) {
	ctx := context.Background()
	entry, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		log.Printf("level=warn component=app op=expire_session msg=\"session store read failed\" err=%v", err)
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		log.Printf("level=warn component=app op=expire_session msg=\"session store invalidate failed\" err=%v", err)
	}
	event := events.SessionExpiredEvent{Timestamp: time.Now()}
	if ok {
		event.UserID = entry.User.ID
	}
	if err := s.publisher.Publish(ctx, events.RoutingKeySessionExpired, event); err != nil {
		log.Printf("level=warn component=app op=expire_session msg=\"event publish failed\" err=%v", err)
	}
}

// ResolveScope determines the customer scope of a caller. Privileged roles
// see every customer. The default role sees its own customer, looked up from
// the upstream profile at most once per session and memoized.
func (s *Service) ResolveScope(ctx context.Context, p Principal) (Scope, error) {
	if domain.IsPrivilegedRole(p.Role) {
		return Scope{AllCustomers: true}, nil
	}

	entry, ok, err := s.sessions.Get(ctx, p.Token)
	if err != nil {
		log.Printf("level=warn component=app op=resolve_scope msg=\"session store read failed\" err=%v", err)
	}
	if ok && entry.CustomerID != "" {
		return Scope{CustomerID: entry.CustomerID}, nil
	}

	profile, err := s.bank.GetMyProfile(ctx, p.Token)
	if err != nil {
		return Scope{}, err
	}
	if profile.ID == "" {
		return Scope{}, nil
	}
	if err := s.sessions.SetCustomerID(ctx, p.Token, profile.ID); err != nil {
		log.Printf("level=warn component=app op=resolve_scope msg=\"customer id memo failed\" err=%v", err)
	}
	return Scope{CustomerID: profile.ID}, nil
}

// ListCustomers returns every customer in the system. Privileged roles only.
func (s *Service) ListCustomers(ctx context.Context, p Principal) ([]domain.Customer, error) {
	if !domain.IsPrivilegedRole(p.Role) {
		return nil, ErrForbidden
	}
	return s.bank.ListCustomers(ctx, p.Token)
}

// ListAccounts returns every account in the caller's scope as one flat,
// ordered collection: customers in listing order, accounts within a customer
// in upstream order.
func (s *Service) ListAccounts(ctx context.Context, p Principal) ([]domain.Account, error) {
	scope, err := s.ResolveScope(ctx, p)
	if err != nil {
		return nil, err
	}

	if !scope.AllCustomers {
		if scope.CustomerID == "" {
			return []domain.Account{}, nil
		}
		return s.bank.ListCustomerAccounts(ctx, p.Token, scope.CustomerID)
	}

	customers, err := s.bank.ListCustomers(ctx, p.Token)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return []domain.Account{}, nil
	}

	perCustomer := make([][]domain.Account, len(customers))
	g, gctx := errgroup.WithContext(ctx)
	for i, customer := range customers {
		i, customer := i, customer
		g.Go(func() error {
			accounts, err := s.bank.ListCustomerAccounts(gctx, p.Token, customer.ID)
			if err != nil {
				return err
			}
			perCustomer[i] = accounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flattened := make([]domain.Account, 0, len(customers))
	for _, accounts := range perCustomer {
		flattened = append(flattened, accounts...)
	}
	return flattened, nil
}

// CreateAccount validates and submits an account creation request.
func (s *Service) CreateAccount(ctx context.Context, p Principal, payload domain.CreateAccountPayload) (domain.Account, error) {
	if err := payload.Validate(); err != nil {
		return domain.Account{}, err
	}
	return s.bank.CreateAccount(ctx, p.Token, payload)
}

// ListTransactions serves one page of the transaction feed.
//
// With an account scope, one upstream page is fetched directly and the local
// filter narrows within that already-paginated window; the upstream's frame
// (totals, page count) is kept, so filtered totals intentionally over-report.
//
// Without one, per-account first pages are fetched concurrently with the
// over-fetch bound, then merged, deduplicated by id, sorted most recent
// first, filtered, and re-paginated into the federated feed.
func (s *Service) ListTransactions(ctx context.Context, p Principal, filters domain.TransactionFilters) (domain.Page[domain.Transaction], error) {
	if filters.Size < 1 {
		filters.Size = DefaultPageSize
	}
	if filters.Page < 0 {
		filters.Page = 0
	}

	if filters.AccountID != "" {
		return s.listAccountPage(ctx, p, filters)
	}
	return s.listFederated(ctx, p, filters)
}

func (s *Service) listAccountPage(ctx context.Context, p Principal, filters domain.TransactionFilters) (domain.Page[domain.Transaction], error) {
	page, err := s.bank.ListAccountTransactions(ctx, p.Token, filters.AccountID, filters.Page, filters.Size)
	if err != nil {
		return domain.Page[domain.Transaction]{}, err
	}

	page.Content = filterTransactions(page.Content, filters)
	page.First = page.Page == 0
	page.Last = page.Page+1 >= page.TotalPages
	return page, nil
}

func (s *Service) listFederated(ctx context.Context, p Principal, filters domain.TransactionFilters) (domain.Page[domain.Transaction], error) {
	accounts, err := s.ListAccounts(ctx, p)
	if err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	if len(accounts) == 0 {
		return domain.EmptyPage[domain.Transaction](filters.Page, filters.Size), nil
	}

	fetchSize := filters.Size * s.overfetchMultiplier
	if fetchSize < s.overfetchFloor {
		fetchSize = s.overfetchFloor
	}

	perAccount := make([][]domain.Transaction, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			page, err := s.bank.ListAccountTransactions(gctx, p.Token, account.ID, 0, fetchSize)
			if err != nil {
				return err
			}
			perAccount[i] = page.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Page[domain.Transaction]{}, err
	}

	merged := make([]domain.Transaction, 0, len(accounts)*filters.Size)
	for _, rows := range perAccount {
		merged = append(merged, rows...)
	}

	log.Printf("level=debug component=app op=list_transactions accounts=%d fetched=%d page=%d size=%d", len(accounts), len(merged), filters.Page, filters.Size)

	feed := filterTransactions(sortByCreatedAtDesc(dedupeByID(merged)), filters)
	return paginate(feed, filters.Page, filters.Size), nil
}

// Transfer validates a money movement, submits it with an idempotency token,
// and signals completion. The token is unique per user-initiated submission
// attempt: a caller retrying the same attempt reuses its token, and a caller
// supplying none gets a fresh one here.
func (s *Service) Transfer(ctx context.Context, p Principal, req domain.TransferRequest, idempotencyKey string) (domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	tx, err := s.bank.SubmitTransfer(ctx, p.Token, req, idempotencyKey)
	if err != nil {
		return domain.Transaction{}, err
	}

	event := events.TransferCompletedEvent{
		TransactionID:   tx.ID,
		SourceAccountID: req.FromAccountID,
		TargetAccountID: req.ToAccountID,
		IdempotencyKey:  idempotencyKey,
		Timestamp:       time.Now(),
	}
	if err := s.publisher.Publish(ctx, events.RoutingKeyTransferCompleted, event); err != nil {
		log.Printf("level=warn component=app op=transfer msg=\"completion event publish failed\" transaction_id=%s err=%v", tx.ID, err)
	}

	return tx, nil
}
