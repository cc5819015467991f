// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/json"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the core API.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: aws_region, sig_info_table, etc.
//   - Environment variables: CORE_AWS_REGION, CORE_SIG_INFO_TABLE, etc.
//   - Command-line flags: --aws_region, --sig_info_table, etc.
var appConfigKeys = []config.AppKey{
	{Name: "aws_region", Default: "us-east-1", Desc: "AWS region for DynamoDB"},
	{Name: "sig_info_table", Default: "infra-core-api-sig-info", Desc: "DynamoDB table for lead records and org metadata"},
	{Name: "audit_log_table", Default: "infra-core-api-audit-log", Desc: "DynamoDB table for the audit trail"},
	{Name: "stripe_table", Default: "infra-core-api-stripe", Desc: "DynamoDB table for customer scopes and charges"},

	{Name: "redis_url", Default: "redis://localhost:6379", Desc: "Redis URL for distributed locks"},

	{Name: "stripe_secret_key", Default: "", Desc: "Stripe API secret key"},

	{Name: "entra_tenant_id", Default: "", Desc: "Entra ID tenant for directory group sync"},
	{Name: "entra_client_id", Default: "", Desc: "Entra ID application (client) id"},
	{Name: "entra_client_secret", Default: "", Desc: "Entra ID client secret"},
	{Name: "skip_entra_sync", Default: false, Desc: "Disable directory group mutations"},

	{Name: "officers_email", Default: "officers@acm.illinois.edu", Desc: "Address CC'd on lead-change notifications"},
	{Name: "alt_email_domain", Default: "acm.illinois.edu", Desc: "Alias domain for member addresses (blank disables)"},

	{Name: "organizations", Default: `[{"id":"ACM","name":"ACM"}]`, Desc: "Organization registry as a JSON array of {id, name, groupId}"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// CORE_* environment variables, and command-line flags, merging with
// precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CORE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		AWSRegion:     appValues.String("aws_region"),
		SigInfoTable:  appValues.String("sig_info_table"),
		AuditLogTable: appValues.String("audit_log_table"),
		StripeTable:   appValues.String("stripe_table"),

		RedisURL: appValues.String("redis_url"),

		StripeSecretKey: appValues.String("stripe_secret_key"),

		EntraTenantID:     appValues.String("entra_tenant_id"),
		EntraClientID:     appValues.String("entra_client_id"),
		EntraClientSecret: appValues.String("entra_client_secret"),
		SkipEntraSync:     appValues.Bool("skip_entra_sync"),

		OfficersEmail:  appValues.String("officers_email"),
		AltEmailDomain: appValues.String("alt_email_domain"),
	}

	raw := appValues.String("organizations")
	if err := json.Unmarshal([]byte(raw), &appCfg.Orgs); err != nil {
		return nil, AppConfig{}, fmt.Errorf("parse organizations config: %w", err)
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// connections are attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if len(appCfg.Orgs) == 0 {
		return fmt.Errorf("organizations config must name at least one organization")
	}
	seen := make(map[string]bool, len(appCfg.Orgs))
	for _, org := range appCfg.Orgs {
		if org.ID == "" {
			return fmt.Errorf("organizations config contains an entry with no id")
		}
		if seen[org.ID] {
			return fmt.Errorf("organizations config repeats id %q", org.ID)
		}
		seen[org.ID] = true
	}

	if !appCfg.SkipEntraSync {
		hasGroups := false
		for _, org := range appCfg.Orgs {
			if org.GroupID != "" {
				hasGroups = true
				break
			}
		}
		if hasGroups && (appCfg.EntraTenantID == "" || appCfg.EntraClientID == "" || appCfg.EntraClientSecret == "") {
			return fmt.Errorf("organizations declare directory groups but Entra credentials are not configured; set skip_entra_sync to run without directory sync")
		}
	}

	if appCfg.StripeSecretKey == "" {
		logger.Warn("stripe_secret_key is not set; invoicing routes will fail against the live API")
	}

	return nil
}
