package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- CartService (implements port.CartService) ---
//
// Carts live in the Store API, keyed by the Cart-Token header. The session
// ID doubles as the cart token, so the storefront and this service address
// the same cart.

// wooCartItem is a Store API cart line.
type wooCartItem struct {
	Key       string `json:"key"`
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Variation []struct {
		Attribute string `json:"attribute"`
		Value     string `json:"value"`
	} `json:"variation,omitempty"`
	Totals struct {
		LineTotal string `json:"line_total"`
	} `json:"totals"`
	Prices struct {
		CurrencyMinorUnit int `json:"currency_minor_unit"`
	} `json:"prices"`
}

// wooCart is the Store API cart response.
type wooCart struct {
	Items []wooCartItem `json:"items"`
}

// GetCart fetches the session's cart from the Store API.
func (c *Client) GetCart(ctx context.Context, sessionID string) (*domain.CartSnapshot, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetCart")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var snapshot *domain.CartSnapshot

	err := c.callRead(ctx, "woocommerce/cart", func() error {
		body, err := c.doStore(ctx, http.MethodGet, "cart", sessionID)
		if err != nil {
			return err
		}
		if body == nil {
			snapshot = &domain.CartSnapshot{SessionID: sessionID}
			return nil
		}

		var cart wooCart
		if err := json.Unmarshal(body, &cart); err != nil {
			return fmt.Errorf("decode cart: %w", err)
		}

		lines := make([]domain.CartLine, 0, len(cart.Items))
		for _, it := range cart.Items {
			variation := make(map[string]string, len(it.Variation))
			for _, v := range it.Variation {
				variation[v.Attribute] = v.Value
			}
			if len(variation) == 0 {
				variation = nil
			}
			lines = append(lines, domain.CartLine{
				ProductID: strconv.Itoa(it.ID),
				Name:      it.Name,
				Quantity:  it.Quantity,
				Variation: variation,
				LineTotal: minorUnitsToFloat(it.Totals.LineTotal, it.Prices.CurrencyMinorUnit),
			})
		}
		snapshot = &domain.CartSnapshot{SessionID: sessionID, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ClearCart removes every item from the session's cart.
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "WooCommerce.ClearCart")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	return c.callWrite(ctx, "woocommerce/cart", func() error {
		_, err := c.doStore(ctx, http.MethodDelete, "cart/items", sessionID)
		return err
	})
}

// minorUnitsToFloat converts a Store API integer-string amount (e.g. "9900"
// with minor unit 2) to a float total.
func minorUnitsToFloat(amount string, minorUnit int) float64 {
	n, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	for i := 0; i < minorUnit; i++ {
		n /= 10
	}
	return n
}
