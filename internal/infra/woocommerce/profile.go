package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- ProfileStore (implements port.ProfileStore) ---
//
// Billing profiles live on the customer record's billing block in
// WooCommerce; there is no separate profile resource.

// GetBillingProfile reads the billing block of a customer. Returns nil when
// the customer has no billing data yet.
func (c *Client) GetBillingProfile(ctx context.Context, accountID string) (*domain.BillingProfile, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetBillingProfile")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var profile *domain.BillingProfile

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

		b := cust.Billing
		if b.FirstName == "" && b.LastName == "" && b.Email == "" {
			profile = nil
			return nil
		}
		profile = &domain.BillingProfile{
			AccountID: accountID,
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Email:     b.Email,
			Phone:     b.Phone,
			Company:   b.Company,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpsertBillingProfile overwrites the customer's billing block wholesale.
func (c *Client) UpsertBillingProfile(ctx context.Context, profile *domain.BillingProfile) error {
	ctx, span := tracer.Start(ctx, "WooCommerce.UpsertBillingProfile")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", profile.AccountID))

	return c.callWrite(ctx, "woocommerce/customers", func() error {
		payload := map[string]any{
			"billing": wooBilling{
				FirstName: profile.FirstName,
				LastName:  profile.LastName,
				Company:   profile.Company,
				Email:     profile.Email,
				Phone:     profile.Phone,
			},
		}
		_, err := c.doREST(ctx, http.MethodPut, "customers/"+url.PathEscape(profile.AccountID), payload)
		return err
	})
}
