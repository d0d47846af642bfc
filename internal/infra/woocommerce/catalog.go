package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- ProductCatalog (implements port.ProductCatalog) ---

// wooProduct maps wc/v3 product fields to the domain.
type wooProduct struct {
	ID               int    `json:"id"`
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Price            string `json:"price"`
	Status           string `json:"status"`
	ShortDescription string `json:"short_description"`
}

func (w *wooProduct) toProduct() *domain.Product {
	price, _ := strconv.ParseFloat(w.Price, 64)
	return &domain.Product{
		ID:          strconv.Itoa(w.ID),
		SKU:         w.SKU,
		Name:        w.Name,
		Price:       price,
		Status:      w.Status,
		Description: w.ShortDescription,
	}
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	var product *domain.Product

	err := c.callRead(ctx, "woocommerce/products", func() error {
		body, err := c.doREST(ctx, http.MethodGet, "products/"+url.PathEscape(productID), nil)
		if err != nil {
			return err
		}
		if body == nil {
			return &domain.ErrNotFound{Resource: "product", ID: productID}
		}

		var p wooProduct
		if err := json.Unmarshal(body, &p); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		product = p.toProduct()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProductBySKU fetches the first product matching a SKU.
func (c *Client) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "WooCommerce.GetProductBySKU")
	defer span.End()
	span.SetAttributes(attribute.String("product.sku", sku))

	var product *domain.Product

	err := c.callRead(ctx, "woocommerce/products", func() error {
		body, err := c.doREST(ctx, http.MethodGet, "products?sku="+url.QueryEscape(sku), nil)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "product", ID: sku}
		}

		var ps []wooProduct
		if err := json.Unmarshal(body, &ps); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
		if len(ps) == 0 {
			return &domain.ErrNotFound{Resource: "product", ID: sku}
		}
		product = ps[0].toProduct()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}
