package service

import (
	"context"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var catalogTracer = otel.Tracer("service/catalog")

// CatalogService serves catalog product reads with a TTL cache in front of
// the commerce backend.
type CatalogService struct {
	catalog port.ProductCatalog
	cache   port.Cache[*domain.Product]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(catalog port.ProductCatalog, cache port.Cache[*domain.Product], metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// GetProduct returns a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if cached, ok := s.cache.Get("id:" + productID); ok {
		s.metrics.IncrCacheHit("product")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("product")

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.cache.Set("id:"+productID, product)
	return product, nil
}

// GetProductBySKU returns the first product matching a SKU.
func (s *CatalogService) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetProductBySKU")
	defer span.End()
	span.SetAttributes(attribute.String("product.sku", sku))

	if cached, ok := s.cache.Get("sku:" + sku); ok {
		s.metrics.IncrCacheHit("product")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("product")

	product, err := s.catalog.GetProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	s.cache.Set("sku:"+sku, product)
	return product, nil
}
