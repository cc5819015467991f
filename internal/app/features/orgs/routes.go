// internal/app/features/orgs/routes.go
package orgs

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/leads/voting", h.HandleVotingLeads)
	r.Get("/users/{username}/roles", h.HandleUserRoles)

	r.Get("/{orgId}", h.HandleGetOrgInfo)
	r.Post("/{orgId}/leads", h.HandleAddLead)
	r.Delete("/{orgId}/leads/{username}", h.HandleRemoveLead)

	return r
}
