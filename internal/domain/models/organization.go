// internal/domain/models/organization.go
package models

// Organization is one registered member organization. GroupID is the
// directory group mirroring the org's leads; when empty, lead changes skip
// directory sync entirely.
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId,omitempty"`
}

// Registry resolves organizations by id. Built once at startup from config.
type Registry struct {
	orgs  map[string]Organization
	order []string
}

func NewRegistry(orgs []Organization) *Registry {
	r := &Registry{orgs: make(map[string]Organization, len(orgs))}
	for _, org := range orgs {
		if _, dup := r.orgs[org.ID]; dup {
			continue
		}
		r.orgs[org.ID] = org
		r.order = append(r.order, org.ID)
	}
	return r
}

// Lookup returns the organization and whether it is registered.
func (r *Registry) Lookup(id string) (Organization, bool) {
	org, ok := r.orgs[id]
	return org, ok
}

// IDs returns all registered org ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
