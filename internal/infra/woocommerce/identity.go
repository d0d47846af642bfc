package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// wooCustomer maps wc/v3 customer fields to the domain.
type wooCustomer struct {
	ID          int        `json:"id,omitempty"`
	Email       string     `json:"email"`
	Username    string     `json:"username,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Role        string     `json:"role,omitempty"`
	Password    string     `json:"password,omitempty"`
	DateCreated string     `json:"date_created,omitempty"`
	Billing     wooBilling `json:"billing,omitempty"`
}

// wooBilling is the billing block embedded in a wc/v3 customer.
type wooBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (w *wooCustomer) toAccount() *domain.Account {
	created, _ := time.Parse("2006-01-02T15:04:05", w.DateCreated)
	return &domain.Account{
		ID:          strconv.Itoa(w.ID),
		Login:       w.Username,
		Email:       w.Email,
		DisplayName: w.FirstName + " " + w.LastName,
		Role:        w.Role,
		CreatedAt:   created,
	}
}

// --- IdentityStore (implements port.IdentityStore) ---

// GetAccount fetches a customer by ID.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var account *domain.Account

	err := c.callRead(ctx, "woocommerce/customers", func() error {
		body, err := c.doREST(ctx, http.MethodGet, "customers/"+url.PathEscape(accountID), nil)
		if err != nil {
			return err
		}
		if body == nil {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}

		var cust wooCustomer
		if err := json.Unmarshal(body, &cust); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		account = cust.toAccount()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountByEmail looks up a customer by email. Returns nil when the
// email is not registered.
func (c *Client) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetAccountByEmail")
	defer span.End()

	var account *domain.Account

	err := c.callRead(ctx, "woocommerce/customers", func() error {
		path := "customers?email=" + url.QueryEscape(email) + "&role=all&per_page=1"
		body, err := c.doREST(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			account = nil
			return nil
		}

		var custs []wooCustomer
		if err := json.Unmarshal(body, &custs); err != nil {
			return fmt.Errorf("decode customers: %w", err)
		}
		if len(custs) == 0 {
			account = nil
			return nil
		}
		account = custs[0].toAccount()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount registers a new customer. The generated credential is sent
// as-is over the authenticated channel; WooCommerce hashes it server-side,
// so the account can log in at the store afterwards.
func (c *Client) CreateAccount(ctx context.Context, account *domain.Account, password string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.CreateAccount")
	defer span.End()

	var created *domain.Account

	err := c.callWrite(ctx, "woocommerce/customers", func() error {
		payload := wooCustomer{
			Email:    account.Email,
			Username: account.Login,
			Role:     account.Role,
			Password: password,
		}
		body, err := c.doREST(ctx, http.MethodPost, "customers", payload)
		if err != nil {
			return err
		}
		if body == nil {
			return fmt.Errorf("empty response creating customer")
		}

		var cust wooCustomer
		if err := json.Unmarshal(body, &cust); err != nil {
			return fmt.Errorf("decode created customer: %w", err)
		}
		created = cust.toAccount()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
