package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/config"
	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/handler"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/cache"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/memstore"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"go.uber.org/zap"
)

type testApp struct {
	router   http.Handler
	store    *memstore.Store
	sessions *service.SessionService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Port:              8080,
		PublicEndpointURL: "/v1/inquiries",
		OrdersRedirectURL: "/my-account/orders/",
		StorefrontOrigin:  "*",
		CacheTTL:          time.Minute,
		FormTokenSecret:   "test-secret",
		FormTokenTTL:      time.Hour,
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memstore.New()

	sessions := service.NewSessionService(cfg.FormTokenSecret, cfg.FormTokenTTL, cache.New[string](cfg.FormTokenTTL), logger)
	prefillCache := cache.New[*domain.BootstrapUserData](cfg.CacheTTL)
	inquiry := service.NewInquiryService(store, store, store, store, sessions, prefillCache, cfg.OrdersRedirectURL, metrics, logger)
	bootstrap := service.NewBootstrapService(store, store, sessions, prefillCache, cfg.PublicEndpointURL, metrics, logger)
	catalog := service.NewCatalogService(store, cache.New[*domain.Product](cfg.CacheTTL), metrics, logger)

	router := handler.NewRouter(handler.Services{
		Inquiry:   inquiry,
		Bootstrap: bootstrap,
		Catalog:   catalog,
		Sessions:  sessions,
	}, cfg, metrics, logger)

	return &testApp{router: router, store: store, sessions: sessions}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == handler.SessionCookieName {
			return c
		}
	}
	return nil
}

// bootstrapGuest hits /v1/bootstrap without a cookie and returns the minted
// session cookie plus the issued form token.
func (a *testApp) bootstrapGuest(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/v1/bootstrap", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("bootstrap: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("bootstrap must set a session cookie for new visitors")
	}

	env := decodeEnvelope(t, rec)
	var data domain.BootstrapData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode bootstrap data: %v", err)
	}
	if data.FormToken == "" {
		t.Fatal("bootstrap must issue a form token")
	}
	return cookie, data.FormToken
}

func (a *testApp) submit(cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/inquiries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func inquiryForm(token string) url.Values {
	return url.Values{
		"email":   {"jane@example.com"},
		"fname":   {"Jane"},
		"lname":   {"Doe"},
		"phone":   {"555-0101"},
		"company": {"Acme"},
		"message": {"Please call before shipping"},
		"token":   {token},
	}
}

// --- Tests ---

func TestBootstrap_GuestPayload(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/bootstrap", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Error("expected success envelope")
	}

	var data domain.BootstrapData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.EndpointURL != "/v1/inquiries" {
		t.Errorf("unexpected endpoint_url: %q", data.EndpointURL)
	}
	if data.LoggedIn {
		t.Error("guest must report is_logged_in=false")
	}
	if data.UserData != nil {
		t.Error("guest must have no user_data")
	}
}

func TestSubmitInquiry_GuestFullFlow(t *testing.T) {
	app := newTestApp(t)
	cookie, token := app.bootstrapGuest(t)
	app.store.AddCartLine(cookie.Value, domain.CartLine{
		ProductID: "42", Name: "Widget", Quantity: 2, LineTotal: 59.80,
	})

	rec := app.submit(cookie, inquiryForm(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Error("expected success envelope")
	}
	var data domain.EnvelopeSubmit
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Message != "Order created successfully." {
		t.Errorf("unexpected message: %q", data.Message)
	}
	if data.Redirect != "/my-account/orders/" {
		t.Errorf("unexpected redirect: %q", data.Redirect)
	}

	// Guest registration rotates the session cookie.
	rotated := sessionCookie(rec)
	if rotated == nil || rotated.Value == cookie.Value {
		t.Error("expected a rotated session cookie after guest registration")
	}

	if app.store.AccountCount() != 1 {
		t.Errorf("expected 1 account, got %d", app.store.AccountCount())
	}
	order := app.store.GetOrder(data.OrderID)
	if order == nil {
		t.Fatal("order not found in store")
	}
	if order.Status != domain.OrderStatusOnHold {
		t.Errorf("expected on-hold order, got %q", order.Status)
	}
	if order.Total != 59.80 {
		t.Errorf("expected total recomputed from lines, got %f", order.Total)
	}

	// Cart is cleared after the order exists.
	cart, _ := app.store.GetCart(context.Background(), cookie.Value)
	if !cart.Empty() {
		t.Error("cart must be cleared after a successful submission")
	}

	// The rotated session is logged in for subsequent bootstraps.
	req := httptest.NewRequest(http.MethodGet, "/v1/bootstrap", nil)
	req.AddCookie(rotated)
	rec2 := httptest.NewRecorder()
	app.router.ServeHTTP(rec2, req)
	var boot domain.BootstrapData
	if err := json.Unmarshal(decodeEnvelope(t, rec2).Data, &boot); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	if !boot.LoggedIn {
		t.Error("rotated session must be logged in")
	}
	if boot.UserData == nil || boot.UserData.FirstName != "Jane" {
		t.Errorf("expected prefill from the submission, got %+v", boot.UserData)
	}
}

func TestSubmitInquiry_MissingToken(t *testing.T) {
	app := newTestApp(t)
	cookie, _ := app.bootstrapGuest(t)
	form := inquiryForm("")
	form.Del("token")

	rec := app.submit(cookie, form)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success {
		t.Error("expected failure envelope")
	}
	if app.store.AccountCount() != 0 {
		t.Error("a rejected token must not create an account")
	}
}

func TestSubmitInquiry_InvalidEmail(t *testing.T) {
	app := newTestApp(t)
	cookie, token := app.bootstrapGuest(t)
	app.store.AddCartLine(cookie.Value, domain.CartLine{ProductID: "42", Name: "Widget", Quantity: 1, LineTotal: 10})

	form := inquiryForm(token)
	form.Set("email", "not-an-email")

	rec := app.submit(cookie, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg domain.EnvelopeMessage
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &msg); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if msg.Message != "Invalid email address." {
		t.Errorf("unexpected message: %q", msg.Message)
	}
}

func TestSubmitInquiry_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	seed := &domain.Account{Login: "jane@example.com", Email: "jane@example.com", Role: domain.RoleCustomer}
	if _, err := app.store.CreateAccount(context.Background(), seed, "hash"); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	cookie, token := app.bootstrapGuest(t)
	app.store.AddCartLine(cookie.Value, domain.CartLine{ProductID: "42", Name: "Widget", Quantity: 1, LineTotal: 10})

	rec := app.submit(cookie, inquiryForm(token))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitInquiry_EmptyCart(t *testing.T) {
	app := newTestApp(t)
	cookie, token := app.bootstrapGuest(t)

	rec := app.submit(cookie, inquiryForm(token))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg domain.EnvelopeMessage
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &msg); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if msg.Message != "Cart is empty." {
		t.Errorf("unexpected message: %q", msg.Message)
	}
	// The account was still created before the cart check.
	if app.store.AccountCount() != 1 {
		t.Errorf("expected the account to survive, got %d", app.store.AccountCount())
	}
}

func TestSubmitInquiry_BootstrapPrefillReflectsLatestSubmission(t *testing.T) {
	app := newTestApp(t)
	seed := &domain.Account{Login: "jane@example.com", Email: "jane@example.com", Role: domain.RoleCustomer}
	acc, err := app.store.CreateAccount(context.Background(), seed, "pw")
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	app.store.UpsertBillingProfile(context.Background(), &domain.BillingProfile{
		AccountID: acc.ID, FirstName: "Jane", Phone: "555-0101",
	})
	sess := app.sessions.Authenticate(acc.ID)
	cookie := &http.Cookie{Name: handler.SessionCookieName, Value: sess.ID}

	bootstrap := func() domain.BootstrapData {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/bootstrap", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("bootstrap: expected 200, got %d", rec.Code)
		}
		var data domain.BootstrapData
		if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
			t.Fatalf("decode bootstrap: %v", err)
		}
		return data
	}

	// First bootstrap warms the prefill cache with the seeded profile.
	if data := bootstrap(); data.UserData == nil || data.UserData.Phone != "555-0101" {
		t.Fatalf("expected seeded prefill, got %+v", data.UserData)
	}

	app.store.AddCartLine(sess.ID, domain.CartLine{ProductID: "42", Name: "Widget", Quantity: 1, LineTotal: 10})
	form := inquiryForm(bootstrap().FormToken)
	form.Set("phone", "555-9999")
	if rec := app.submit(cookie, form); rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The profile overwrite must show up immediately, not after cache expiry.
	if data := bootstrap(); data.UserData == nil || data.UserData.Phone != "555-9999" {
		t.Errorf("expected prefill refreshed after submission, got %+v", data.UserData)
	}
}

func TestGetProduct(t *testing.T) {
	app := newTestApp(t)
	app.store.SeedProduct(domain.Product{ID: "42", SKU: "WID-1", Name: "Widget", Price: 29.90})

	req := httptest.NewRequest(http.MethodGet, "/v1/products/42", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p domain.Product
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.Name != "Widget" {
		t.Errorf("unexpected product: %+v", p)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/products/missing", nil)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", rec.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
