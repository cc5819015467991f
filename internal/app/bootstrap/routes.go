// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/entra"
	"github.com/acm-uiuc/core-sub001/internal/app/clients/stripeapi"
	auditlogfeature "github.com/acm-uiuc/core-sub001/internal/app/features/auditlog"
	healthfeature "github.com/acm-uiuc/core-sub001/internal/app/features/health"
	invoicingfeature "github.com/acm-uiuc/core-sub001/internal/app/features/invoicing"
	orgsfeature "github.com/acm-uiuc/core-sub001/internal/app/features/orgs"
	"github.com/acm-uiuc/core-sub001/internal/app/store/audit"
	"github.com/acm-uiuc/core-sub001/internal/app/store/customers"
	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/app/store/leads"
	"github.com/acm-uiuc/core-sub001/internal/app/system/locks"
	"github.com/acm-uiuc/core-sub001/internal/app/system/notifier"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema checks, and
// the Startup hook have completed. Stores and external clients are built
// here once and injected into the feature handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	registry := models.NewRegistry(appCfg.Orgs)

	transactor := dynamo.NewTransactor(deps.Dynamo, logger)
	auditStore := audit.New(deps.Dynamo, appCfg.AuditLogTable, logger)
	leadStore := leadstore.New(deps.Dynamo, transactor, auditStore, appCfg.SigInfoTable, registry.IDs(), logger)
	customerStore := customerstore.New(deps.Dynamo, transactor, appCfg.StripeTable, logger)

	lockSvc := locks.New(deps.Redis, logger)
	notify := notifier.NewLogNotifier(logger)
	payments := stripeapi.New(appCfg.StripeSecretKey)

	// Directory sync is wired only when credentials exist; the orgs handler
	// skips directory calls entirely when it is disabled.
	skipSync := appCfg.SkipEntraSync || appCfg.EntraClientSecret == ""
	var directory orgsfeature.Directory
	if !skipSync {
		tokens, err := entra.NewTokenSource(appCfg.EntraTenantID, appCfg.EntraClientID, appCfg.EntraClientSecret)
		if err != nil {
			logger.Error("entra token source init failed", zap.Error(err))
			return nil, err
		}
		directory = entra.New(tokens, logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Dynamo, appCfg.SigInfoTable, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	orgsHandler := orgsfeature.NewHandler(leadStore, directory, lockSvc, notify, registry,
		appCfg.OfficersEmail, appCfg.AltEmailDomain, skipSync, logger)

	invoicingHandler := invoicingfeature.NewHandler(payments, customerStore, lockSvc, auditStore, logger)

	auditHandler := auditlogfeature.NewHandler(auditStore, logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/organizations", orgsfeature.Routes(orgsHandler))
		api.Mount("/invoicing", invoicingfeature.Routes(invoicingHandler))
		api.Mount("/auditlog", auditlogfeature.Routes(auditHandler))
	})

	return r, nil
}
