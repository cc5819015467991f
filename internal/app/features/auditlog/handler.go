// internal/app/features/auditlog/handler.go
package auditlog

import (
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/audit"
)

type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an audit log feature handler bound to the audit
// store and logger.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Audit: store,
		Log:   logger,
	}
}
