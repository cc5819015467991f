// internal/app/features/orgs/http.go
package orgs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/entra"
	"github.com/acm-uiuc/core-sub001/internal/app/system/normalize"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// actorHeader carries the authenticated caller's username, set by the
// gateway in front of this service.
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

// leadErrorStatus maps saga failures onto response codes: unknown org is the
// caller's mistake, directory failures are an upstream problem, everything
// else is ours.
func leadErrorStatus(err error) int {
	var ge *entra.GroupError
	switch {
	case errors.Is(err, ErrUnknownOrg):
		return http.StatusNotFound
	case errors.As(err, &ge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleAddLead handles POST /{orgId}/leads.
func (h *Handler) HandleAddLead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username        string `json:"username"`
		Name            string `json:"name"`
		Title           string `json:"title"`
		NonVotingMember bool   `json:"nonVotingMember"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := normalize.Email(body.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if _, err := normalize.Domain(username); err != nil {
		writeError(w, http.StatusBadRequest, "username must be an email address")
		return
	}

	in := AddLeadInput{
		OrgID: chi.URLParam(r, "orgId"),
		Lead: models.LeadEntry{
			Username:        username,
			Name:            normalize.Name(body.Name),
			Title:           normalize.Name(body.Title),
			NonVotingMember: body.NonVotingMember,
		},
		Actor: actor(r),
		ReqID: middleware.GetReqID(r.Context()),
	}

	n, err := h.AddLead(r.Context(), in)
	if err != nil {
		h.Log.Error("add lead failed",
			zap.String("org", in.OrgID), zap.String("username", username), zap.Error(err))
		writeError(w, leadErrorStatus(err), "could not add lead")
		return
	}
	if n == nil {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}
	if err := h.Notify.Send(r.Context(), n); err != nil {
		h.Log.Error("lead added but notification delivery failed", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"updated": true})
}

// HandleRemoveLead handles DELETE /{orgId}/leads/{username}.
func (h *Handler) HandleRemoveLead(w http.ResponseWriter, r *http.Request) {
	username := normalize.Email(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	in := RemoveLeadInput{
		OrgID:    chi.URLParam(r, "orgId"),
		Username: username,
		Actor:    actor(r),
		ReqID:    middleware.GetReqID(r.Context()),
	}

	n, err := h.RemoveLead(r.Context(), in)
	if err != nil {
		h.Log.Error("remove lead failed",
			zap.String("org", in.OrgID), zap.String("username", username), zap.Error(err))
		writeError(w, leadErrorStatus(err), "could not remove lead")
		return
	}
	if n == nil {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}
	if err := h.Notify.Send(r.Context(), n); err != nil {
		h.Log.Error("lead removed but notification delivery failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

// HandleGetOrgInfo handles GET /{orgId}.
func (h *Handler) HandleGetOrgInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.GetOrgInfo(r.Context(), chi.URLParam(r, "orgId"))
	if err != nil {
		if errors.Is(err, ErrUnknownOrg) {
			writeError(w, http.StatusNotFound, "unknown organization")
			return
		}
		h.Log.Error("get org info failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load organization")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleVotingLeads handles GET /leads/voting.
func (h *Handler) HandleVotingLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.GetAllVotingLeads(r.Context())
	if err != nil {
		h.Log.Error("voting leads report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load voting leads")
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// HandleUserRoles handles GET /users/{username}/roles.
func (h *Handler) HandleUserRoles(w http.ResponseWriter, r *http.Request) {
	username := normalize.Email(chi.URLParam(r, "username"))
	roles, err := h.GetUserOrgRoles(r.Context(), username)
	if err != nil {
		h.Log.Error("user roles lookup failed", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load roles")
		return
	}
	exec, err := h.ShouldBeInExecCouncil(r.Context(), username)
	if err != nil {
		h.Log.Error("exec council check failed", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load roles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":    username,
		"roles":       roles,
		"execCouncil": exec,
	})
}
