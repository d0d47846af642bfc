package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/cache"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockIdentityStore struct {
	accounts     map[string]*domain.Account // by email
	byID         map[string]*domain.Account
	created      []*domain.Account
	createErr    error
	lookupErr    error
	lastPassword string
	nextID       string
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{
		accounts: make(map[string]*domain.Account),
		byID:     make(map[string]*domain.Account),
		nextID:   "acct-1",
	}
}

func (m *mockIdentityStore) GetAccount(_ context.Context, accountID string) (*domain.Account, error) {
	acc, ok := m.byID[accountID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return acc, nil
}

func (m *mockIdentityStore) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.accounts[email], nil
}

func (m *mockIdentityStore) CreateAccount(_ context.Context, account *domain.Account, password string) (*domain.Account, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	cp := *account
	cp.ID = m.nextID
	m.accounts[cp.Email] = &cp
	m.byID[cp.ID] = &cp
	m.created = append(m.created, &cp)
	m.lastPassword = password
	return &cp, nil
}

type mockProfileStore struct {
	profiles map[string]*domain.BillingProfile
	upserts  int
	err      error
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]*domain.BillingProfile)}
}

func (m *mockProfileStore) GetBillingProfile(_ context.Context, accountID string) (*domain.BillingProfile, error) {
	return m.profiles[accountID], nil
}

func (m *mockProfileStore) UpsertBillingProfile(_ context.Context, profile *domain.BillingProfile) error {
	if m.err != nil {
		return m.err
	}
	cp := *profile
	m.profiles[profile.AccountID] = &cp
	m.upserts++
	return nil
}

type mockCartService struct {
	lines    []domain.CartLine
	getErr   error
	clearErr error
	cleared  int
}

func (m *mockCartService) GetCart(_ context.Context, sessionID string) (*domain.CartSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &domain.CartSnapshot{SessionID: sessionID, Lines: m.lines}, nil
}

func (m *mockCartService) ClearCart(_ context.Context, _ string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared++
	return nil
}

type mockOrderService struct {
	orders []*domain.Order
	err    error
	seq    int
}

func (m *mockOrderService) CreateOrder(_ context.Context, draft *domain.OrderDraft) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.seq++
	total := 0.0
	for _, l := range draft.Lines {
		total += l.Total
	}
	order := &domain.Order{
		ID:           fmt.Sprintf("order-%d", m.seq),
		CustomerID:   draft.CustomerID,
		Status:       draft.Status,
		Lines:        draft.Lines,
		Billing:      draft.Billing,
		CustomerNote: draft.CustomerNote,
		Total:        total,
		CreatedAt:    time.Now(),
	}
	m.orders = append(m.orders, order)
	return order, nil
}

// --- Fixture ---

type inquiryFixture struct {
	identity *mockIdentityStore
	profiles *mockProfileStore
	carts    *mockCartService
	orders   *mockOrderService
	sessions *service.SessionService
	prefill  *cache.InMemory[*domain.BootstrapUserData]
	svc      *service.InquiryService
}

func newInquiryFixture() *inquiryFixture {
	f := &inquiryFixture{
		identity: newMockIdentityStore(),
		profiles: newMockProfileStore(),
		carts: &mockCartService{lines: []domain.CartLine{
			{ProductID: "42", Name: "Widget", Quantity: 2, LineTotal: 59.80},
		}},
		orders:  &mockOrderService{},
		prefill: cache.New[*domain.BootstrapUserData](time.Hour),
	}
	f.sessions = service.NewSessionService("test-secret", time.Hour, cache.New[string](time.Hour), zap.NewNop())
	f.svc = service.NewInquiryService(
		f.identity, f.profiles, f.carts, f.orders,
		f.sessions, f.prefill, "/my-account/orders/",
		observability.NewMetrics(), zap.NewNop(),
	)
	return f
}

// guestSubmit issues a valid token for a fresh guest session and submits.
func (f *inquiryFixture) guestSubmit(t *testing.T, req *domain.InquiryRequest) (*domain.SubmitResult, error) {
	t.Helper()
	sess := f.sessions.NewGuestSession()
	token, err := f.sessions.IssueFormToken(sess.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return f.svc.Submit(context.Background(), sess, token, req)
}

func validRequest() *domain.InquiryRequest {
	return &domain.InquiryRequest{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "555-0101",
		Company:   "Acme",
		Message:   "Please call before shipping",
	}
}

// --- Tests ---

func TestSubmit_GuestHappyPath(t *testing.T) {
	f := newInquiryFixture()

	result, err := f.guestSubmit(t, validRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Message != "Order created successfully." {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.Redirect != "/my-account/orders/" {
		t.Errorf("unexpected redirect: %q", result.Redirect)
	}
	if !result.Session.Authenticated() {
		t.Error("expected an authenticated session after guest submission")
	}

	if len(f.identity.created) != 1 {
		t.Fatalf("expected 1 account created, got %d", len(f.identity.created))
	}
	acc := f.identity.created[0]
	if acc.Role != domain.RoleCustomer {
		t.Errorf("expected role %q, got %q", domain.RoleCustomer, acc.Role)
	}
	if acc.Login != "jane@example.com" || acc.Email != "jane@example.com" {
		t.Errorf("login/email should mirror the submitted address, got %q/%q", acc.Login, acc.Email)
	}
	if len(f.identity.lastPassword) != 12 {
		t.Errorf("expected a 12-character generated credential, got %d chars", len(f.identity.lastPassword))
	}

	profile := f.profiles.profiles[acc.ID]
	if profile == nil {
		t.Fatal("expected billing profile upserted for the new account")
	}
	if profile.FirstName != "Jane" || profile.Company != "Acme" {
		t.Errorf("unexpected profile contents: %+v", profile)
	}

	if len(f.orders.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(f.orders.orders))
	}
	order := f.orders.orders[0]
	if order.Status != domain.OrderStatusOnHold {
		t.Errorf("expected status %q, got %q", domain.OrderStatusOnHold, order.Status)
	}
	if order.CustomerID != acc.ID {
		t.Errorf("order bound to wrong customer: %q", order.CustomerID)
	}
	if len(order.Lines) != 1 || order.Lines[0].Total != 59.80 {
		t.Errorf("cart lines not carried over verbatim: %+v", order.Lines)
	}
	if order.Billing.Address1 != "Inquiry via Web Form" {
		t.Errorf("expected placeholder street, got %q", order.Billing.Address1)
	}
	if order.CustomerNote != "Customer Message: Please call before shipping" {
		t.Errorf("unexpected customer note: %q", order.CustomerNote)
	}

	if f.carts.cleared != 1 {
		t.Errorf("expected cart cleared exactly once, got %d", f.carts.cleared)
	}
}

func TestSubmit_InvalidToken(t *testing.T) {
	f := newInquiryFixture()
	sess := f.sessions.NewGuestSession()

	_, err := f.svc.Submit(context.Background(), sess, "garbage", validRequest())

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(f.identity.created) != 0 || f.profiles.upserts != 0 || len(f.orders.orders) != 0 {
		t.Error("token failure must abort before any mutation")
	}
}

func TestSubmit_TokenBoundToOtherSession(t *testing.T) {
	f := newInquiryFixture()
	other := f.sessions.NewGuestSession()
	token, _ := f.sessions.IssueFormToken(other.ID)

	sess := f.sessions.NewGuestSession()
	_, err := f.svc.Submit(context.Background(), sess, token, validRequest())

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmit_GuestInvalidEmail(t *testing.T) {
	f := newInquiryFixture()
	req := validRequest()
	req.Email = "not-an-email"

	_, err := f.guestSubmit(t, req)

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if validation.Field != "email" {
		t.Errorf("expected field 'email', got %q", validation.Field)
	}
	if len(f.identity.created) != 0 {
		t.Error("no account may be created on invalid email")
	}
}

func TestSubmit_GuestDuplicateEmail(t *testing.T) {
	f := newInquiryFixture()
	f.identity.accounts["jane@example.com"] = &domain.Account{ID: "acct-existing", Email: "jane@example.com"}

	_, err := f.guestSubmit(t, validRequest())

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(f.identity.created) != 0 {
		t.Error("no account may be created on duplicate email")
	}
	if f.profiles.upserts != 0 {
		t.Error("profile must not be touched when registration is refused")
	}
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := newInquiryFixture()
	f.carts.lines = nil

	_, err := f.guestSubmit(t, validRequest())

	var emptyCart *domain.ErrEmptyCart
	if !errors.As(err, &emptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	// Account creation and the profile write happen before the cart check
	// and are not rolled back.
	if len(f.identity.created) != 1 {
		t.Errorf("expected the account to survive an empty-cart failure, created=%d", len(f.identity.created))
	}
	if f.profiles.upserts != 1 {
		t.Errorf("expected the profile upsert to survive an empty-cart failure, upserts=%d", f.profiles.upserts)
	}
	if len(f.orders.orders) != 0 {
		t.Error("no order may exist for an empty cart")
	}
}

func TestSubmit_OrderFailureKeepsCart(t *testing.T) {
	f := newInquiryFixture()
	f.orders.err = errors.New("backend rejected the order")

	_, err := f.guestSubmit(t, validRequest())

	var orderErr *domain.ErrOrderCreation
	if !errors.As(err, &orderErr) {
		t.Fatalf("expected ErrOrderCreation, got %v", err)
	}
	if f.carts.cleared != 0 {
		t.Error("cart must not be cleared when order creation fails")
	}
}

func TestSubmit_ClearCartFailureStillSucceeds(t *testing.T) {
	f := newInquiryFixture()
	f.carts.clearErr = errors.New("cart backend down")

	result, err := f.guestSubmit(t, validRequest())
	if err != nil {
		t.Fatalf("clear-cart failure must not fail the submission, got %v", err)
	}
	if result.OrderID == "" {
		t.Error("expected an order ID despite the stale cart")
	}
}

func TestSubmit_LoggedInSkipsRegistration(t *testing.T) {
	f := newInquiryFixture()
	f.identity.byID["acct-7"] = &domain.Account{ID: "acct-7", Email: "owner@example.com"}
	sess := f.sessions.Authenticate("acct-7")
	token, _ := f.sessions.IssueFormToken(sess.ID)

	// Logged-in submissions skip email validation entirely; even a malformed
	// address goes straight into the billing profile.
	req := validRequest()
	req.Email = "whatever"

	result, err := f.svc.Submit(context.Background(), sess, token, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(f.identity.created) != 0 {
		t.Error("logged-in submission must not create an account")
	}
	if result.Session.ID != sess.ID {
		t.Error("logged-in submission must keep the caller's session")
	}
	profile := f.profiles.profiles["acct-7"]
	if profile == nil || profile.Email != "whatever" {
		t.Errorf("expected profile overwritten with submitted email, got %+v", profile)
	}
}

func TestSubmit_ProfileOverwriteNotMerge(t *testing.T) {
	f := newInquiryFixture()
	f.identity.byID["acct-7"] = &domain.Account{ID: "acct-7", Email: "owner@example.com"}
	f.profiles.profiles["acct-7"] = &domain.BillingProfile{
		AccountID: "acct-7",
		FirstName: "Old",
		Company:   "Old Co",
		Phone:     "000",
	}
	sess := f.sessions.Authenticate("acct-7")
	token, _ := f.sessions.IssueFormToken(sess.ID)

	req := validRequest()
	req.Company = ""
	req.Phone = ""

	if _, err := f.svc.Submit(context.Background(), sess, token, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	profile := f.profiles.profiles["acct-7"]
	if profile.Company != "" || profile.Phone != "" {
		t.Errorf("blank fields must overwrite, not merge: %+v", profile)
	}
	if profile.FirstName != "Jane" {
		t.Errorf("expected first name replaced, got %q", profile.FirstName)
	}
}

func TestSubmit_ResubmissionCreatesDistinctOrders(t *testing.T) {
	f := newInquiryFixture()
	f.identity.byID["acct-7"] = &domain.Account{ID: "acct-7", Email: "owner@example.com"}
	sess := f.sessions.Authenticate("acct-7")

	for i := 0; i < 2; i++ {
		token, _ := f.sessions.IssueFormToken(sess.ID)
		if _, err := f.svc.Submit(context.Background(), sess, token, validRequest()); err != nil {
			t.Fatalf("submission %d failed: %v", i+1, err)
		}
	}

	if len(f.orders.orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(f.orders.orders))
	}
	if f.orders.orders[0].ID == f.orders.orders[1].ID {
		t.Error("resubmissions must create distinct orders")
	}
}

func TestSubmit_SanitizesInput(t *testing.T) {
	f := newInquiryFixture()
	req := &domain.InquiryRequest{
		Email:     "  Jane@Example.COM ",
		FirstName: "Ja\x00ne",
		LastName:  "\x1bDoe  ",
		Message:   "line one\nline two",
	}

	if _, err := f.guestSubmit(t, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	acc := f.identity.created[0]
	if acc.Email != "jane@example.com" {
		t.Errorf("email not normalized: %q", acc.Email)
	}
	profile := f.profiles.profiles[acc.ID]
	if profile.FirstName != "Jane" || profile.LastName != "Doe" {
		t.Errorf("control characters not stripped: %q %q", profile.FirstName, profile.LastName)
	}
	if f.orders.orders[0].CustomerNote != "Customer Message: line one\nline two" {
		t.Errorf("newlines inside the message must survive: %q", f.orders.orders[0].CustomerNote)
	}
}

func TestSubmit_InvalidatesCachedPrefill(t *testing.T) {
	f := newInquiryFixture()
	f.identity.byID["acct-7"] = &domain.Account{ID: "acct-7", Email: "owner@example.com"}
	f.prefill.Set("acct-7", &domain.BootstrapUserData{FirstName: "Old", Phone: "000"})
	sess := f.sessions.Authenticate("acct-7")
	token, _ := f.sessions.IssueFormToken(sess.ID)

	if _, err := f.svc.Submit(context.Background(), sess, token, validRequest()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok := f.prefill.Get("acct-7"); ok {
		t.Error("profile overwrite must drop the cached bootstrap prefill")
	}
}

func TestSubmit_NoMessageNoNote(t *testing.T) {
	f := newInquiryFixture()
	req := validRequest()
	req.Message = "   "

	if _, err := f.guestSubmit(t, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if note := f.orders.orders[0].CustomerNote; note != "" {
		t.Errorf("whitespace-only message must not produce a note, got %q", note)
	}
}
