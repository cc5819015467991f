// internal/app/features/orgs/addlead.go
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

// ErrUnknownOrg reports an organization id that is not registered.
var ErrUnknownOrg = errors.New("unknown organization")

// AddLeadInput carries one add-lead request through the saga.
type AddLeadInput struct {
	OrgID string
	Lead  models.LeadEntry
	Actor string
	ReqID string
}

// AddLead makes a user a lead of an organization: directory group first,
// then the conditioned record write paired with its audit entry. A nil
// notification with nil error means the user was already a lead and nothing
// changed. If the record write fails after the directory was mutated, the
// directory change is compensated before the error is returned.
func (h *Handler) AddLead(ctx context.Context, in AddLeadInput) (*models.Notification, error) {
	org, ok := h.Registry.Lookup(in.OrgID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrg, in.OrgID)
	}
	username := in.Lead.Username

	var notification *models.Notification
	err := h.Locks.WithLock(ctx, locks.UserKey(username), func(ctx context.Context) error {
		existing, err := h.Leads.Get(ctx, org.ID, username)
		if err != nil {
			return err
		}
		if existing != nil {
			h.Log.Info("user is already a lead, nothing to do",
				zap.String("org", org.ID), zap.String("username", username))
			return nil
		}

		directoryChanged := false
		if h.syncsDirectory(org) {
			h.Log.Info("adding user to directory group",
				zap.String("org", org.ID), zap.String("group", org.GroupID), zap.String("username", username))
			if err := h.Dir.ModifyGroup(ctx, username, org.GroupID, entra.GroupAdd); err != nil {
				return err
			}
			directoryChanged = true
		}

		err = h.Leads.Add(ctx, org.ID, in.Lead, models.AuditLogEntry{
			Module:    models.ModuleOrgInfo,
			Actor:     in.Actor,
			Target:    username,
			Message:   fmt.Sprintf("Added target as a lead of %s.", org.Name),
			RequestID: in.ReqID,
		})
		if err != nil {
			if directoryChanged {
				h.compensateDirectory(ctx, org, username, entra.GroupRemove)
			}
			if errors.Is(err, leadstore.ErrAlreadyLead) {
				// A concurrent writer added the record between our read
				// and the conditioned write. Same outcome as the
				// pre-check: already in the desired state.
				h.Log.Info("record appeared concurrently, treating add as no-op",
					zap.String("org", org.ID), zap.String("username", username))
				return nil
			}
			return err
		}

		notification = h.addLeadNotification(org, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// compensateDirectory reverses an earlier directory mutation. Failure is
// logged and swallowed: the original outcome must reach the caller, and the
// group is now out of step until someone reconciles it by hand.
func (h *Handler) compensateDirectory(ctx context.Context, org models.Organization, username string, action entra.GroupAction) {
	if err := h.Dir.ModifyGroup(ctx, username, org.GroupID, action); err != nil {
		h.Log.Error("failed to roll back directory change, manual intervention required",
			zap.String("org", org.ID),
			zap.String("group", org.GroupID),
			zap.String("username", username),
			zap.String("action", string(action)),
			zap.Error(err))
		return
	}
	h.Log.Info("rolled back directory change",
		zap.String("org", org.ID), zap.String("username", username), zap.String("action", string(action)))
}

func (h *Handler) addLeadNotification(org models.Organization, in AddLeadInput) *models.Notification {
	kind := "Lead"
	voting := " "
	if in.Lead.NonVotingMember {
		kind = "Non-voting lead"
		voting = " non-voting "
	}
	syncNote := "\n"
	if h.SkipDirectorySync {
		syncNote = "\nLeads for this org are not updated automatically in external systems. Please contact the appropriate administrators to ensure these updates are made.\n"
	}
	return &models.Notification{
		Function: models.FunctionEmailNotifications,
		Metadata: models.NotificationMetadata{Initiator: in.Actor, ReqID: in.ReqID},
		Payload: models.NotificationPayload{
			To:      h.recipients(in.Lead.Username),
			CC:      []string{h.OfficersEmail},
			Subject: fmt.Sprintf("%s added for %s", kind, org.Name),
			Content: fmt.Sprintf(
				"Hello,\n\nWe're letting you know that %s has been added as a%slead for %s by %s.%sChanges may take up to 2 hours to reflect in all systems.",
				in.Lead.Username, voting, org.Name, in.Actor, syncNote),
		},
	}
}
