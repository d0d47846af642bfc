package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// --- OrderService (implements port.OrderService) ---

// wooOrderLine is a wc/v3 order line item. Total is a decimal string;
// sending it pins the line total so WooCommerce keeps the cart's pricing.
type wooOrderLine struct {
	ProductID int               `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Total     string            `json:"total,omitempty"`
	Variation map[string]string `json:"variation,omitempty"`
}

// wooOrderPayload is the wc/v3 order creation body.
type wooOrderPayload struct {
	Status       string         `json:"status"`
	CustomerID   int            `json:"customer_id"`
	CustomerNote string         `json:"customer_note,omitempty"`
	Billing      wooAddress     `json:"billing"`
	LineItems    []wooOrderLine `json:"line_items"`
}

// wooAddress is a wc/v3 billing address.
type wooAddress struct {
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

// wooOrder is the wc/v3 order response (fields this service reads).
type wooOrder struct {
	ID          int    `json:"id"`
	Status      string `json:"status"`
	CustomerID  int    `json:"customer_id"`
	Total       string `json:"total"`
	DateCreated string `json:"date_created"`
}

// CreateOrder creates a wc/v3 order from the draft. WooCommerce recomputes
// order totals from the pinned line totals server-side.
func (c *Client) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", draft.CustomerID))

	var order *domain.Order

	err := c.callWrite(ctx, "woocommerce/orders", func() error {
		customerID, err := strconv.Atoi(draft.CustomerID)
		if err != nil {
			return fmt.Errorf("invalid customer id %q: %w", draft.CustomerID, err)
		}

		lines := make([]wooOrderLine, 0, len(draft.Lines))
		for _, l := range draft.Lines {
			productID, err := strconv.Atoi(l.ProductID)
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", l.ProductID, err)
			}
			lines = append(lines, wooOrderLine{
				ProductID: productID,
				Quantity:  l.Quantity,
				Total:     strconv.FormatFloat(l.Total, 'f', 2, 64),
				Variation: l.Variation,
			})
		}

		payload := wooOrderPayload{
			Status:       draft.Status,
			CustomerID:   customerID,
			CustomerNote: draft.CustomerNote,
			Billing: wooAddress{
				FirstName: draft.Billing.FirstName,
				LastName:  draft.Billing.LastName,
				Company:   draft.Billing.Company,
				Email:     draft.Billing.Email,
				Phone:     draft.Billing.Phone,
				Address1:  draft.Billing.Address1,
				City:      draft.Billing.City,
				State:     draft.Billing.State,
				Postcode:  draft.Billing.Postcode,
				Country:   draft.Billing.Country,
			},
			LineItems: lines,
		}

		body, err := c.doREST(ctx, http.MethodPost, "orders", payload)
		if err != nil {
			return err
		}
		if body == nil {
			return fmt.Errorf("empty response creating order")
		}

		var created wooOrder
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("decode created order: %w", err)
		}

		total, err := strconv.ParseFloat(created.Total, 64)
		if err != nil {
			c.logger.Warn("woocommerce: unparseable order total",
				zap.String("order_id", strconv.Itoa(created.ID)),
				zap.String("total", created.Total),
				zap.Error(err),
			)
		}
		createdAt, err := time.Parse("2006-01-02T15:04:05", created.DateCreated)
		if err != nil {
			c.logger.Warn("woocommerce: unparseable order date",
				zap.String("order_id", strconv.Itoa(created.ID)),
				zap.String("date_created", created.DateCreated),
				zap.Error(err),
			)
		}
		order = &domain.Order{
			ID:           strconv.Itoa(created.ID),
			CustomerID:   strconv.Itoa(created.CustomerID),
			Status:       created.Status,
			Lines:        draft.Lines,
			Billing:      draft.Billing,
			CustomerNote: draft.CustomerNote,
			Total:        total,
			CreatedAt:    createdAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
