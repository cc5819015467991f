// internal/app/features/orgs/removelead.go
package orgs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/entra"
	"github.com/acm-uiuc/core-sub001/internal/app/store/leads"
	"github.com/acm-uiuc/core-sub001/internal/app/system/locks"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// RemoveLeadInput carries one remove-lead request through the saga.
type RemoveLeadInput struct {
	OrgID    string
	Username string
	Actor    string
	ReqID    string
}

// RemoveLead takes a user out of an organization's leadership: directory
// group removal first, then the conditioned record delete paired with its
// audit entry. A nil notification with nil error means the user was not a
// lead and nothing changed. If the record delete fails after the directory
// was mutated, the user is added back to the group before the error is
// returned.
func (h *Handler) RemoveLead(ctx context.Context, in RemoveLeadInput) (*models.Notification, error) {
	org, ok := h.Registry.Lookup(in.OrgID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrg, in.OrgID)
	}

	var notification *models.Notification
	err := h.Locks.WithLock(ctx, locks.UserKey(in.Username), func(ctx context.Context) error {
		existing, err := h.Leads.Get(ctx, org.ID, in.Username)
		if err != nil {
			return err
		}
		if existing == nil {
			h.Log.Info("user is not a lead, nothing to do",
				zap.String("org", org.ID), zap.String("username", in.Username))
			return nil
		}

		directoryChanged := false
		if h.syncsDirectory(org) {
			h.Log.Info("removing user from directory group",
				zap.String("org", org.ID), zap.String("group", org.GroupID), zap.String("username", in.Username))
			if err := h.Dir.ModifyGroup(ctx, in.Username, org.GroupID, entra.GroupRemove); err != nil {
				return err
			}
			directoryChanged = true
		}

		err = h.Leads.Remove(ctx, org.ID, in.Username, models.AuditLogEntry{
			Module:    models.ModuleOrgInfo,
			Actor:     in.Actor,
			Target:    in.Username,
			Message:   fmt.Sprintf("Removed target from lead of %s.", org.Name),
			RequestID: in.ReqID,
		})
		if err != nil {
			if directoryChanged {
				h.compensateDirectory(ctx, org, in.Username, entra.GroupAdd)
			}
			if errors.Is(err, leadstore.ErrNotLead) {
				h.Log.Info("record disappeared concurrently, treating remove as no-op",
					zap.String("org", org.ID), zap.String("username", in.Username))
				return nil
			}
			return err
		}

		notification = h.removeLeadNotification(org, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

func (h *Handler) removeLeadNotification(org models.Organization, in RemoveLeadInput) *models.Notification {
	syncNote := "\n"
	if h.SkipDirectorySync {
		syncNote = "\nLeads for this org are not updated automatically in external systems. Please contact the appropriate administrators to make sure these updates are made.\n"
	}
	return &models.Notification{
		Function: models.FunctionEmailNotifications,
		Metadata: models.NotificationMetadata{Initiator: in.Actor, ReqID: in.ReqID},
		Payload: models.NotificationPayload{
			To:      h.recipients(in.Username),
			CC:      []string{h.OfficersEmail},
			Subject: fmt.Sprintf("Lead removed for %s", org.Name),
			Content: fmt.Sprintf(
				"Hello,\n\nWe're letting you know that %s has been removed as a lead for %s by %s.%sNo action is required from you at this time.",
				in.Username, org.Name, in.Actor, syncNote),
		},
	}
}
