// internal/app/features/invoicing/http.go
package invoicing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/system/normalize"
)

const actorHeader = "X-Username"

func actor(r *http.Request) string {
	if a := r.Header.Get(actorHeader); a != "" {
		return normalize.Email(a)
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleCheckOrCreateCustomer handles POST /customers.
func (h *Handler) HandleCheckOrCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Org   string `json:"org"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Org == "" {
		writeError(w, http.StatusBadRequest, "org is required")
		return
	}

	result, err := h.CheckOrCreateCustomer(r.Context(), CustomerInput(body))
	if err != nil {
		if _, derr := normalize.Domain(normalize.Email(body.Email)); derr != nil {
			writeError(w, http.StatusBadRequest, "email must have a valid domain")
			return
		}
		h.Log.Error("customer check failed", zap.String("org", body.Org), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not resolve customer")
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

// HandleAddInvoice handles POST /invoices. Identity drift and duplicate
// invoices both come back as 409: the request is well-formed but conflicts
// with recorded state.
func (h *Handler) HandleAddInvoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Org         string `json:"org"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		InvoiceID   string `json:"invoiceId"`
		AmountCents int64  `json:"amountCents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Org == "" || body.InvoiceID == "" || body.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "org, invoiceId, and a positive amountCents are required")
		return
	}

	result, err := h.AddInvoice(r.Context(), InvoiceInput{
		Org:       body.Org,
		Name:      body.Name,
		Email:     body.Email,
		InvoiceID: body.InvoiceID,
		Amount:    body.AmountCents,
		Actor:     actor(r),
		ReqID:     middleware.GetReqID(r.Context()),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateInvoice) {
			writeError(w, http.StatusConflict, "invoice has already been recorded")
			return
		}
		if _, derr := normalize.Domain(normalize.Email(body.Email)); derr != nil {
			writeError(w, http.StatusBadRequest, "email must have a valid domain")
			return
		}
		h.Log.Error("add invoice failed",
			zap.String("org", body.Org), zap.String("invoiceId", body.InvoiceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not record invoice")
		return
	}
	if result.NeedsConfirmation {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HandleCreatePaymentLink handles POST /payment-links.
func (h *Handler) HandleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InvoiceID    string `json:"invoiceId"`
		AmountCents  int64  `json:"amountCents"`
		ContactName  string `json:"contactName"`
		ContactEmail string `json:"contactEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.InvoiceID == "" || body.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "invoiceId and a positive amountCents are required")
		return
	}

	link, err := h.CreatePaymentLink(r.Context(), PaymentLinkInput{
		InvoiceID:    body.InvoiceID,
		Amount:       body.AmountCents,
		ContactName:  body.ContactName,
		ContactEmail: body.ContactEmail,
		Actor:        actor(r),
		ReqID:        middleware.GetReqID(r.Context()),
	})
	if err != nil {
		h.Log.Error("create payment link failed", zap.String("invoiceId", body.InvoiceID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not create payment link")
		return
	}
	writeJSON(w, http.StatusCreated, link)
}
