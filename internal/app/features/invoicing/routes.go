// internal/app/features/invoicing/routes.go
package invoicing

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/customers", h.HandleCheckOrCreateCustomer)
	r.Post("/invoices", h.HandleAddInvoice)
	r.Post("/payment-links", h.HandleCreatePaymentLink)

	return r
}
