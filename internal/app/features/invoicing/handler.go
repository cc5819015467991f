// internal/app/features/invoicing/handler.go
package invoicing

import (
	"context"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/stripeapi"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// Payments is the payment processor surface the invoicing operations need.
type Payments interface {
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	GetCustomer(ctx context.Context, customerID string) (models.CustomerIdentity, error)
	CreatePaymentLink(ctx context.Context, invoiceID string, amount int64, contactName, contactEmail, createdBy string) (stripeapi.PaymentLink, error)
}

// CustomerStore is the persistence surface for customer scopes and charges.
type CustomerStore interface {
	GetScope(ctx context.Context, org, domain string) (*models.CustomerScopeRecord, error)
	CreateScope(ctx context.Context, org, domain, customerID, email string) error
	EnsureEmailMapping(ctx context.Context, org, domain, email, customerID string) error
	AddCharge(ctx context.Context, org, domain, invoiceID string, amount int64) error
}

// Locker serializes operations that share a key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Auditor records invoicing actions in the audit trail.
type Auditor interface {
	Log(ctx context.Context, entry models.AuditLogEntry) error
}

type Handler struct {
	Payments  Payments
	Customers CustomerStore
	Locks     Locker
	Audit     Auditor
	Log       *zap.Logger
}

func NewHandler(payments Payments, customers CustomerStore, locks Locker, auditor Auditor, logger *zap.Logger) *Handler {
	return &Handler{
		Payments:  payments,
		Customers: customers,
		Locks:     locks,
		Audit:     auditor,
		Log:       logger,
	}
}

// audit writes an audit entry, logging but not propagating failures so the
// primary operation's outcome stands.
func (h *Handler) audit(ctx context.Context, entry models.AuditLogEntry) {
	if err := h.Audit.Log(ctx, entry); err != nil {
		h.Log.Error("failed to write audit entry",
			zap.String("module", entry.Module), zap.String("target", entry.Target), zap.Error(err))
	}
}
