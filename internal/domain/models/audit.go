// internal/domain/models/audit.go
package models

// Module tags for audit log entries.
const (
	ModuleOrgInfo   = "orgInfo"
	ModuleInvoicing = "invoicing"
)

// AuditLogEntry is an append-only record of a privileged action. Entries that
// accompany a record mutation are written in the same DynamoDB transaction as
// the mutation, so the audit trail and the change succeed or fail as one unit.
type AuditLogEntry struct {
	Module  string `dynamodbav:"module" json:"module"`
	Actor   string `dynamodbav:"actor" json:"actor"`
	Target  string `dynamodbav:"target" json:"target"`
	Message string `dynamodbav:"message" json:"message"`

	// RequestID ties the entry back to the inbound request, when known.
	RequestID string `dynamodbav:"requestId,omitempty" json:"requestId,omitempty"`
}
