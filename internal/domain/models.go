// Package domain defines the core business entities for the storefront
// inquiry service. These models are independent of the commerce backend and
// represent the canonical data structures used throughout the service.
package domain

import "time"

// ============================================================
// Inquiry input
// ============================================================

// InquiryRequest carries the raw form fields of an inquiry submission.
// All fields are untrusted client input until sanitized.
type InquiryRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ============================================================
// Accounts & sessions
// ============================================================

// Account represents a store customer account. The email is unique across
// the identity store; Login mirrors the email for accounts created by the
// inquiry flow.
type Account struct {
	ID          string    `json:"id"`
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleCustomer is the role assigned to accounts created by the inquiry flow.
const RoleCustomer = "customer"

// Session identifies a caller. AccountID is empty for guest sessions.
type Session struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id,omitempty"`
}

// Authenticated reports whether the session is bound to an account.
func (s Session) Authenticated() bool {
	return s.AccountID != ""
}

// ============================================================
// Billing profile
// ============================================================

// BillingProfile holds the persisted billing details for an account.
// It is overwritten wholesale on every successful submission; it always
// reflects the most recent inquiry for its account.
type BillingProfile struct {
	AccountID string `json:"account_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// ============================================================
// Cart
// ============================================================

// CartLine is a single line item in a session's cart. Variation holds the
// selected attribute values for variable products. LineTotal is the computed
// total for the line as priced by the cart backend.
type CartLine struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`
	LineTotal float64           `json:"line_total"`
}

// CartSnapshot is the ordered contents of a session's cart at read time.
type CartSnapshot struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
}

// Empty reports whether the snapshot has no line items.
func (c CartSnapshot) Empty() bool {
	return len(c.Lines) == 0
}

// ============================================================
// Orders
// ============================================================

// OrderStatusOnHold is the initial status of inquiry orders.
const OrderStatusOnHold = "on-hold"

// OrderAddress is a billing address attached to an order. The inquiry form
// does not collect street data, so Address1 carries a fixed placeholder and
// the location fields stay blank.
type OrderAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// OrderLine is a line item on an order, copied verbatim from the cart.
type OrderLine struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`
	Total     float64           `json:"total"`
}

// OrderDraft is the input to order creation: cart lines plus billing data.
type OrderDraft struct {
	CustomerID   string       `json:"customer_id"`
	Lines        []OrderLine  `json:"lines"`
	Billing      OrderAddress `json:"billing"`
	CustomerNote string       `json:"customer_note,omitempty"`
	Status       string       `json:"status"`
	StatusReason string       `json:"status_reason,omitempty"`
}

// Order is a created order. Immutable once created except for status/notes.
type Order struct {
	ID           string       `json:"id"`
	CustomerID   string       `json:"customer_id"`
	Status       string       `json:"status"`
	Lines        []OrderLine  `json:"lines"`
	Billing      OrderAddress `json:"billing"`
	CustomerNote string       `json:"customer_note,omitempty"`
	Total        float64      `json:"total"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ============================================================
// Catalog
// ============================================================

// Product is a catalog product as exposed by the commerce backend.
type Product struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku,omitempty"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Status      string  `json:"status,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ============================================================
// Workflow results & page bootstrap
// ============================================================

// SubmitResult is returned on a successful inquiry submission. Session is
// the caller's session after the workflow ran; for guests it is a new
// authenticated session bound to the created account.
type SubmitResult struct {
	Message  string  `json:"message"`
	Redirect string  `json:"redirect"`
	OrderID  string  `json:"order_id"`
	Session  Session `json:"-"`
}

// BootstrapUserData is the prefill data for a logged-in visitor.
type BootstrapUserData struct {
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// BootstrapData is handed to the storefront page: where to post, a fresh
// form token, and prefill data when the visitor is logged in.
type BootstrapData struct {
	EndpointURL string             `json:"endpoint_url"`
	FormToken   string             `json:"token"`
	LoggedIn    bool               `json:"is_logged_in"`
	UserData    *BootstrapUserData `json:"user_data,omitempty"`
}

// ============================================================
// Response envelope
// ============================================================

// Envelope is the JSON response shape for the inquiry endpoints:
// {"success": true|false, "data": {...}}.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// EnvelopeMessage is the data payload carrying only a message.
type EnvelopeMessage struct {
	Message string `json:"message"`
}

// EnvelopeSubmit is the data payload of a successful submission.
type EnvelopeSubmit struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	OrderID  string `json:"order_id,omitempty"`
}
