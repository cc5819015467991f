// internal/app/features/invoicing/invoice.go
package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/stripeapi"
	"github.com/acm-uiuc/core-sub001/internal/app/store/customers"
	"github.com/acm-uiuc/core-sub001/internal/app/system/normalize"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// ErrDuplicateInvoice reports an invoice id that has already been charged
// for its scope.
var ErrDuplicateInvoice = errors.New("invoice has already been recorded")

// InvoiceInput is one invoice to record against a customer scope.
// Amount is in cents.
type InvoiceInput struct {
	Org       string
	Name      string
	Email     string
	InvoiceID string
	Amount    int64
	Actor     string
	ReqID     string
}

// InvoiceResult reports what happened to an invoice. Charged is false when
// identity drift blocked the charge; Current and Incoming carry the
// conflicting snapshots in that case.
type InvoiceResult struct {
	CustomerID        string                   `json:"customerId"`
	Charged           bool                     `json:"charged"`
	NeedsConfirmation bool                     `json:"needsConfirmation"`
	Current           *models.CustomerIdentity `json:"current,omitempty"`
	Incoming          *models.CustomerIdentity `json:"incoming,omitempty"`
}

// AddInvoice resolves the customer scope and records the charge exactly
// once. Identity drift stops the charge before any write happens; the
// caller must re-submit after the identities are reconciled.
func (h *Handler) AddInvoice(ctx context.Context, in InvoiceInput) (*InvoiceResult, error) {
	if in.InvoiceID == "" {
		return nil, errors.New("invoice id is required")
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive, got %d", in.Amount)
	}

	customer, err := h.CheckOrCreateCustomer(ctx, CustomerInput{
		Org: in.Org, Name: in.Name, Email: in.Email,
	})
	if err != nil {
		return nil, err
	}
	if customer.NeedsConfirmation {
		return &InvoiceResult{
			CustomerID:        customer.CustomerID,
			NeedsConfirmation: true,
			Current:           customer.Current,
			Incoming:          customer.Incoming,
		}, nil
	}

	domain, err := normalize.Domain(normalize.Email(in.Email))
	if err != nil {
		return nil, err
	}
	err = h.Customers.AddCharge(ctx, in.Org, domain, in.InvoiceID, in.Amount)
	if err != nil {
		if errors.Is(err, customerstore.ErrDuplicateCharge) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoice, in.InvoiceID)
		}
		return nil, err
	}

	h.audit(ctx, models.AuditLogEntry{
		Module:    models.ModuleInvoicing,
		Actor:     in.Actor,
		Target:    in.InvoiceID,
		Message:   fmt.Sprintf("Recorded charge of %d cents for %s.", in.Amount, in.Org),
		RequestID: in.ReqID,
	})
	return &InvoiceResult{CustomerID: customer.CustomerID, Charged: true}, nil
}

// PaymentLinkInput describes a one-off payment link request.
type PaymentLinkInput struct {
	InvoiceID    string
	Amount       int64
	ContactName  string
	ContactEmail string
	Actor        string
	ReqID        string
}

// CreatePaymentLink creates a shareable payment link for an invoice.
func (h *Handler) CreatePaymentLink(ctx context.Context, in PaymentLinkInput) (*stripeapi.PaymentLink, error) {
	if in.InvoiceID == "" {
		return nil, errors.New("invoice id is required")
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("payment link amount must be positive, got %d", in.Amount)
	}

	link, err := h.Payments.CreatePaymentLink(ctx, in.InvoiceID, in.Amount,
		normalize.Name(in.ContactName), normalize.Email(in.ContactEmail), in.Actor)
	if err != nil {
		return nil, err
	}

	h.audit(ctx, models.AuditLogEntry{
		Module:    models.ModuleInvoicing,
		Actor:     in.Actor,
		Target:    in.InvoiceID,
		Message:   fmt.Sprintf("Created payment link %s.", link.LinkID),
		RequestID: in.ReqID,
	})
	return &link, nil
}
