// internal/app/features/auditlog/list.go
package auditlog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

const maxLimit = 500

var knownModules = map[string]bool{
	models.ModuleOrgInfo:   true,
	models.ModuleInvoicing: true,
}

// HandleList handles GET /?module=…&limit=… and returns the most recent
// audit entries for a module, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	if !knownModules[module] {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown module"})
		return
	}

	limit := int32(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = int32(n)
	}

	entries, err := h.Audit.List(r.Context(), module, limit)
	if err != nil {
		h.Log.Error("audit list failed", zap.String("module", module), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "could not load audit entries"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"module":  module,
		"entries": entries,
	})
}
