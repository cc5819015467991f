// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging
// level, request limits). AppConfig carries everything specific to this
// service: table names, external service credentials, and the organization
// registry.
type AppConfig struct {
	// AWS / DynamoDB configuration
	AWSRegion     string // AWS region for DynamoDB
	SigInfoTable  string // lead records + org metadata (LEAD#/DEFINE# rows)
	AuditLogTable string // audit trail, keyed (module, createdAt), TTL on expireAt
	StripeTable   string // customer scopes, email mappings, charges

	// Redis, for distributed locks
	RedisURL string // redis:// connection URL

	// Stripe
	StripeSecretKey string

	// Microsoft Entra ID (directory group sync)
	EntraTenantID     string
	EntraClientID     string
	EntraClientSecret string

	// SkipEntraSync disables directory group mutations entirely. Lead
	// changes still land in the database; notifications flag the gap.
	SkipEntraSync bool

	// Notification addressing
	OfficersEmail  string // CC'd on every lead-change notification
	AltEmailDomain string // alias domain for member addresses (blank disables)

	// Orgs is the organization registry, parsed from the organizations
	// config key (JSON array of {id, name, groupId}).
	Orgs []models.Organization
}
