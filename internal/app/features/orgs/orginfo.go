// internal/app/features/orgs/orginfo.go
package orgs

import (
	"context"
	"fmt"

	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// GetOrgInfo returns one organization's metadata merged with its current
// lead roster.
func (h *Handler) GetOrgInfo(ctx context.Context, orgID string) (map[string]any, error) {
	org, ok := h.Registry.Lookup(orgID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrg, orgID)
	}

	info, err := h.Leads.OrgMetadata(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	records, err := h.Leads.LeadsForOrg(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	leads := make([]models.LeadEntry, 0, len(records))
	for _, rec := range records {
		leads = append(leads, models.LeadEntry{
			Username:        rec.Username,
			Name:            rec.Name,
			Title:           rec.Title,
			NonVotingMember: rec.NonVotingMember,
		})
	}

	info["id"] = org.ID
	info["name"] = org.Name
	info["leads"] = leads
	return info, nil
}

// GetUserOrgRoles returns the roles a user holds across organizations.
func (h *Handler) GetUserOrgRoles(ctx context.Context, username string) ([]models.OrgRole, error) {
	return h.Leads.RolesForUser(ctx, username)
}

// GetAllVotingLeads returns every voting lead across all organizations.
func (h *Handler) GetAllVotingLeads(ctx context.Context) ([]models.VotingLead, error) {
	return h.Leads.VotingLeads(ctx)
}

// ShouldBeInExecCouncil reports whether a user holds a voting lead role in
// at least one organization.
func (h *Handler) ShouldBeInExecCouncil(ctx context.Context, username string) (bool, error) {
	return h.Leads.IsVotingLead(ctx, username)
}
