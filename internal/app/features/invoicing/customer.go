// internal/app/features/invoicing/customer.go
package invoicing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/customers"
	"github.com/acm-uiuc/core-sub001/internal/app/system/locks"
	"github.com/acm-uiuc/core-sub001/internal/app/system/normalize"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// CustomerInput identifies a billing contact for one organization.
type CustomerInput struct {
	Org   string
	Name  string
	Email string
}

// CustomerResult is the outcome of a customer check. When the stored
// identity no longer matches the processor's live record, NeedsConfirmation
// is set and both snapshots are returned for a human to reconcile; nothing
// is charged in that state.
type CustomerResult struct {
	CustomerID        string                   `json:"customerId"`
	Created           bool                     `json:"created"`
	NeedsConfirmation bool                     `json:"needsConfirmation"`
	Current           *models.CustomerIdentity `json:"current,omitempty"`
	Incoming          *models.CustomerIdentity `json:"incoming,omitempty"`
}

// CheckOrCreateCustomer resolves the payment customer for an (org, email
// domain) scope, creating it at the processor exactly once. Callers racing
// on the same scope serialize on the scope lock; a creator that still loses
// the conditioned write falls back to the record the winner stored.
func (h *Handler) CheckOrCreateCustomer(ctx context.Context, in CustomerInput) (*CustomerResult, error) {
	name := normalize.Name(in.Name)
	email := normalize.Email(in.Email)
	domain, err := normalize.Domain(email)
	if err != nil {
		return nil, err
	}

	var result *CustomerResult
	lockErr := h.Locks.WithLock(ctx, locks.CustomerScopeKey(in.Org, domain), func(ctx context.Context) error {
		scope, err := h.Customers.GetScope(ctx, in.Org, domain)
		if err != nil {
			return err
		}

		if scope == nil {
			customerID, err := h.Payments.CreateCustomer(ctx, name, email)
			if err != nil {
				return err
			}
			err = h.Customers.CreateScope(ctx, in.Org, domain, customerID, email)
			if err == nil {
				h.Log.Info("created payment customer",
					zap.String("org", in.Org), zap.String("domain", domain), zap.String("customerId", customerID))
				result = &CustomerResult{CustomerID: customerID, Created: true}
				return nil
			}
			if !errors.Is(err, customerstore.ErrScopeExists) {
				return err
			}
			// A concurrent creator won despite the lock. Use their record;
			// ours becomes an orphan at the processor.
			h.Log.Warn("customer scope appeared concurrently, using existing record",
				zap.String("org", in.Org), zap.String("domain", domain), zap.String("orphanedCustomerId", customerID))
			scope, err = h.Customers.GetScope(ctx, in.Org, domain)
			if err != nil {
				return err
			}
			if scope == nil {
				return fmt.Errorf("customer scope for %s/%s vanished after conflicting create", in.Org, domain)
			}
		}

		live, err := h.Payments.GetCustomer(ctx, scope.CustomerID)
		if err != nil {
			return err
		}

		// Record this address for the scope however the check ends, so the
		// caller's email stays resolvable even while drift awaits a human.
		// An existing mapping is fine and any other failure is not worth
		// failing the whole check over.
		if err := h.Customers.EnsureEmailMapping(ctx, in.Org, domain, email, scope.CustomerID); err != nil &&
			!errors.Is(err, customerstore.ErrMappingExists) {
			h.Log.Warn("could not record email mapping",
				zap.String("org", in.Org), zap.String("email", email), zap.Error(err))
		}

		if normalize.Email(live.Email) != email || live.Name != name {
			result = &CustomerResult{
				CustomerID:        scope.CustomerID,
				NeedsConfirmation: true,
				Current:           &live,
				Incoming:          &models.CustomerIdentity{Name: name, Email: email},
			}
			return nil
		}
		result = &CustomerResult{CustomerID: scope.CustomerID}
		return nil
	})
	if lockErr != nil {
		return nil, lockErr
	}
	return result, nil
}
