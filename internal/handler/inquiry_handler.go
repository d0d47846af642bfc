package handler

import (
	"net/http"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Inquiry submission — POST /v1/inquiries
// ============================================================

// submitInquiryHandler accepts the form-encoded inquiry fields plus the
// form token and runs the workflow. On success the response carries the
// confirmation message and redirect target; for guests the session cookie
// is rotated to the new authenticated session.
func submitInquiryHandler(svc *service.InquiryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inquiries")
		defer span.End()

		if err := r.ParseForm(); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid form body")
			return
		}

		req := &domain.InquiryRequest{
			Email:     r.PostFormValue("email"),
			FirstName: r.PostFormValue("fname"),
			LastName:  r.PostFormValue("lname"),
			Phone:     r.PostFormValue("phone"),
			Company:   r.PostFormValue("company"),
			Message:   r.PostFormValue("message"),
		}
		formToken := r.PostFormValue("token")
		sess := SessionFromContext(ctx)

		result, err := svc.Submit(ctx, sess, formToken, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if result.Session.ID != sess.ID {
			setSessionCookie(w, result.Session.ID)
		}

		writeSuccess(w, http.StatusCreated, domain.EnvelopeSubmit{
			Message:  result.Message,
			Redirect: result.Redirect,
			OrderID:  result.OrderID,
		})
	}
}

// ============================================================
// Page bootstrap — GET /v1/bootstrap
// ============================================================

func bootstrapHandler(svc *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bootstrap")
		defer span.End()

		sess := SessionFromContext(ctx)

		data, err := svc.Bootstrap(ctx, sess)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeSuccess(w, http.StatusOK, data)
	}
}
