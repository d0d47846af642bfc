package handler

import (
	"net/http"

	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Catalog — GET /v1/products/{productId}, GET /v1/products?sku=
// ============================================================

func getProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{productId}")
		defer span.End()

		productID := chi.URLParam(r, "productId")
		if productID == "" {
			writeFailure(w, http.StatusBadRequest, "missing product id")
			return
		}

		product, err := svc.GetProduct(ctx, productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeSuccess(w, http.StatusOK, product)
	}
}

func getProductBySKUHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products")
		defer span.End()

		sku := r.URL.Query().Get("sku")
		if sku == "" {
			writeFailure(w, http.StatusBadRequest, "missing sku query parameter")
			return
		}

		product, err := svc.GetProductBySKU(ctx, sku)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeSuccess(w, http.StatusOK, product)
	}
}
