// Package service — InquiryService runs the inquiry-to-order workflow:
// verify the form token, resolve or create the customer account, sync the
// billing profile, and turn the session's cart into an on-hold order.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var inquiryTracer = otel.Tracer("service/inquiry")

const (
	passwordLength = 12

	// placeholderAddress fills the street line of inquiry orders; the form
	// does not collect address data.
	placeholderAddress = "Inquiry via Web Form"

	// orderStatusReason is the audit note attached to the on-hold transition.
	orderStatusReason = "Inquiry order created via web form"
)

// InquiryService orchestrates the inquiry order workflow.
type InquiryService struct {
	identity port.IdentityStore
	profiles port.ProfileStore
	carts    port.CartService
	orders   port.OrderService
	sessions *SessionService
	prefill  port.Cache[*domain.BootstrapUserData]
	metrics  *observability.Metrics
	logger   *zap.Logger

	redirectURL string
}

// NewInquiryService creates the workflow service. prefill is the bootstrap
// prefill cache, shared with BootstrapService so profile overwrites
// invalidate it. redirectURL is where the storefront sends the customer
// after a successful submission.
func NewInquiryService(identity port.IdentityStore, profiles port.ProfileStore, carts port.CartService, orders port.OrderService, sessions *SessionService, prefill port.Cache[*domain.BootstrapUserData], redirectURL string, metrics *observability.Metrics, logger *zap.Logger) *InquiryService {
	return &InquiryService{
		identity:    identity,
		profiles:    profiles,
		carts:       carts,
		orders:      orders,
		sessions:    sessions,
		prefill:     prefill,
		metrics:     metrics,
		logger:      logger,
		redirectURL: redirectURL,
	}
}

// ============================================================
// Submit — POST /v1/inquiries
// ============================================================

// Submit runs the full workflow. The returned result carries the session to
// continue with: for guests that is a new authenticated session bound to
// the account created here.
//
// Failures before order creation leave completed steps in place — a created
// account is not rolled back when the cart later turns out to be empty.
// The cart is cleared only after the order exists.
func (s *InquiryService) Submit(ctx context.Context, sess domain.Session, formToken string, req *domain.InquiryRequest) (*domain.SubmitResult, error) {
	ctx, span := inquiryTracer.Start(ctx, "InquiryService.Submit")
	defer span.End()
	span.SetAttributes(attribute.Bool("session.authenticated", sess.Authenticated()))

	result, err := s.submit(ctx, sess, formToken, req)
	if err != nil {
		s.metrics.IncrSubmission("error")
		return nil, err
	}
	s.metrics.IncrSubmission("success")
	return result, nil
}

func (s *InquiryService) submit(ctx context.Context, sess domain.Session, formToken string, req *domain.InquiryRequest) (*domain.SubmitResult, error) {
	// Token check aborts before any mutation.
	if err := s.sessions.VerifyFormToken(formToken, sess.ID); err != nil {
		return nil, err
	}

	email := sanitizeEmail(req.Email)
	fname := sanitizeText(req.FirstName)
	lname := sanitizeText(req.LastName)
	phone := sanitizeText(req.Phone)
	company := sanitizeText(req.Company)
	message := sanitizeText(req.Message)

	// The cart is keyed by the session the visitor shopped under. Keep that
	// ID even when registration rotates the session below.
	cartSessionID := sess.ID

	// Resolve identity. A logged-in session is used unchanged — no email
	// re-validation, even when the submitted email differs.
	if !sess.Authenticated() {
		newSess, err := s.registerGuest(ctx, email, fname, lname)
		if err != nil {
			return nil, err
		}
		sess = newSess
	}

	// Billing profile reflects the latest submission, for new and existing
	// accounts alike. Overwrite, not merge.
	profile := &domain.BillingProfile{
		AccountID: sess.AccountID,
		FirstName: fname,
		LastName:  lname,
		Email:     email,
		Phone:     phone,
		Company:   company,
	}
	if err := s.profiles.UpsertBillingProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert billing profile: %w", err)
	}
	// The bootstrap prefill mirrors the profile; drop the cached copy so
	// the next page load sees this submission.
	s.prefill.Delete(sess.AccountID)

	cart, err := s.carts.GetCart(ctx, cartSessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Empty() {
		return nil, &domain.ErrEmptyCart{SessionID: cartSessionID}
	}

	order, err := s.createOrder(ctx, sess.AccountID, cart, profile, message)
	if err != nil {
		// Cart stays intact so the customer can resubmit.
		return nil, &domain.ErrOrderCreation{Err: err}
	}
	s.metrics.IncrOrderCreated()

	// Commit point: clear the cart only after the order exists.
	if err := s.carts.ClearCart(ctx, cartSessionID); err != nil {
		s.logger.Warn("cart not cleared after order creation",
			zap.String("session_id", cartSessionID),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("inquiry order created",
		zap.String("order_id", order.ID),
		zap.String("account_id", sess.AccountID),
		zap.Int("lines", len(order.Lines)),
		zap.Float64("total", order.Total),
	)

	return &domain.SubmitResult{
		Message:  "Order created successfully.",
		Redirect: s.redirectURL,
		OrderID:  order.ID,
		Session:  sess,
	}, nil
}

// registerGuest validates the email, creates a customer account with a
// random strong credential and returns a fresh authenticated session.
func (s *InquiryService) registerGuest(ctx context.Context, email, fname, lname string) (domain.Session, error) {
	if !isValidEmail(email) {
		return domain.Session{}, &domain.ErrValidation{Field: "email", Message: "Invalid email address."}
	}

	existing, err := s.identity.GetAccountByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		return domain.Session{}, &domain.ErrConflict{Message: "Email already exists. Please login to submit inquiry."}
	}

	password, err := generatePassword(passwordLength)
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate password: %w", err)
	}

	account := &domain.Account{
		Login:       email,
		Email:       email,
		DisplayName: strings.TrimSpace(fname + " " + lname),
		Role:        domain.RoleCustomer,
	}
	created, err := s.identity.CreateAccount(ctx, account, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create account: %w", err)
	}
	s.metrics.IncrAccountCreated()

	s.logger.Info("customer account created",
		zap.String("account_id", created.ID),
		zap.String("email", created.Email),
	)

	// Auto-login: any prior session state is dropped here.
	return s.sessions.Authenticate(created.ID), nil
}

// createOrder assembles the order draft from the cart snapshot and billing
// profile. Cart lines are carried over verbatim — no recomputation.
func (s *InquiryService) createOrder(ctx context.Context, accountID string, cart *domain.CartSnapshot, profile *domain.BillingProfile, message string) (*domain.Order, error) {
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Variation: l.Variation,
			Total:     l.LineTotal,
		})
	}

	note := ""
	if message != "" {
		note = "Customer Message: " + message
	}

	draft := &domain.OrderDraft{
		CustomerID: accountID,
		Lines:      lines,
		Billing: domain.OrderAddress{
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Company:   profile.Company,
			Email:     profile.Email,
			Phone:     profile.Phone,
			Address1:  placeholderAddress,
		},
		CustomerNote: note,
		Status:       domain.OrderStatusOnHold,
		StatusReason: orderStatusReason,
	}

	return s.orders.CreateOrder(ctx, draft)
}

// ============================================================
// Input sanitization
// ============================================================

// sanitizeText trims whitespace and strips control characters.
func sanitizeText(in string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, in)
	return strings.TrimSpace(cleaned)
}

// sanitizeEmail lowercases and trims the address in addition to the text
// cleanup; format validation is separate.
func sanitizeEmail(in string) string {
	return strings.ToLower(sanitizeText(in))
}

// isValidEmail runs RFC 5322 address parsing and rejects the display-name
// form ("Name <a@b>" parses but is not a bare address).
func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// generatePassword returns a random credential drawn from a mixed alphabet
// of letters, digits and specials.
func generatePassword(length int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
