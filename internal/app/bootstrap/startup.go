// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema checks complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ids := make([]string, 0, len(appCfg.Orgs))
	groups := 0
	for _, org := range appCfg.Orgs {
		ids = append(ids, org.ID)
		if org.GroupID != "" {
			groups++
		}
	}
	logger.Info("organization registry loaded",
		zap.Strings("orgs", ids),
		zap.Int("directory_groups", groups),
		zap.Bool("skip_entra_sync", appCfg.SkipEntraSync))
	return nil
}
