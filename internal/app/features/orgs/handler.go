// internal/app/features/orgs/handler.go
package orgs

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/entra"
	"github.com/acm-uiuc/core-sub001/internal/app/system/notifier"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// LeadStore is the persistence surface the lead operations need.
type LeadStore interface {
	Get(ctx context.Context, org, username string) (*models.LeadRecord, error)
	Add(ctx context.Context, org string, lead models.LeadEntry, entry models.AuditLogEntry) error
	Remove(ctx context.Context, org, username string, entry models.AuditLogEntry) error
	LeadsForOrg(ctx context.Context, org string) ([]models.LeadRecord, error)
	OrgMetadata(ctx context.Context, org string) (map[string]any, error)
	RolesForUser(ctx context.Context, username string) ([]models.OrgRole, error)
	VotingLeads(ctx context.Context) ([]models.VotingLead, error)
	IsVotingLead(ctx context.Context, username string) (bool, error)
}

// Directory mutates directory group membership.
type Directory interface {
	ModifyGroup(ctx context.Context, email, groupID string, action entra.GroupAction) error
}

// Locker serializes operations that share a key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Handler struct {
	Leads    LeadStore
	Dir      Directory
	Locks    Locker
	Notify   notifier.Notifier
	Registry *models.Registry

	// OfficersEmail is CC'd on every lead-change notification.
	OfficersEmail string

	// AltEmailDomain, when set, adds an alias recipient for the same local
	// part (jdoe@illinois.edu also notifies jdoe@<AltEmailDomain>).
	AltEmailDomain string

	// SkipDirectorySync disables all directory calls, for environments
	// without Entra credentials. Record changes still go through.
	SkipDirectorySync bool

	Log *zap.Logger
}

func NewHandler(leads LeadStore, dir Directory, locks Locker, notify notifier.Notifier, registry *models.Registry, officersEmail, altEmailDomain string, skipDirectorySync bool, logger *zap.Logger) *Handler {
	return &Handler{
		Leads:             leads,
		Dir:               dir,
		Locks:             locks,
		Notify:            notify,
		Registry:          registry,
		OfficersEmail:     officersEmail,
		AltEmailDomain:    altEmailDomain,
		SkipDirectorySync: skipDirectorySync,
		Log:               logger,
	}
}

// recipients returns the notification addresses for a username.
func (h *Handler) recipients(username string) []string {
	to := []string{username}
	if h.AltEmailDomain == "" {
		return to
	}
	local, domain, ok := strings.Cut(username, "@")
	if !ok || domain == h.AltEmailDomain {
		return to
	}
	return append(to, local+"@"+h.AltEmailDomain)
}

// syncsDirectory reports whether lead changes for this org touch the
// directory at all.
func (h *Handler) syncsDirectory(org models.Organization) bool {
	return org.GroupID != "" && !h.SkipDirectorySync
}
