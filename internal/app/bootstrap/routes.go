// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/stratadmin/internal/app/features/auditlog"
	authapifeature "github.com/dalemusser/stratadmin/internal/app/features/authapi"
	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	filesfeature "github.com/dalemusser/stratadmin/internal/app/features/files"
	foldersfeature "github.com/dalemusser/stratadmin/internal/app/features/folders"
	healthfeature "github.com/dalemusser/stratadmin/internal/app/features/health"
	materialsfeature "github.com/dalemusser/stratadmin/internal/app/features/materials"
	tablesfeature "github.com/dalemusser/stratadmin/internal/app/features/tables"
	userstore "github.com/dalemusser/stratadmin/internal/app/store/users"
	"github.com/dalemusser/stratadmin/internal/app/system/apicors"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Everything except /auth/login, /auth/verify-okta-token and the health
// endpoints requires a bearer token: either one issued by /auth/login or an
// Okta access token.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTExpiresIn)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	authn := auth.NewAuthenticator(tokens, deps.Okta, userstore.New(deps.Postgres), logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Audit logger: MongoDB when configured, zap always (per mode).
	auditLogger := auditlog.New(deps.AuditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request IDs show up in error logs (see errorsfeature.ErrorLogger).
	r.Use(chimw.RequestID)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(timeouts.Request()))

	// CORS middleware: must be early in the chain to handle preflight requests.
	// Explicit API origins take over from the WAFFLE core settings.
	if cors := apicors.FromList(appCfg.CORSAllowedOrigins); cors != nil {
		r.Use(cors)
	} else {
		r.Use(middleware.CORSFromConfig(coreCfg))
	}

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Postgres, deps.MongoClient, logger).WithJobs(jobStatus)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Sign-in; /auth/profile applies its own bearer check
	authHandler := authapifeature.NewHandler(deps.Postgres, authn, auditLogger, errLog, logger)
	r.Mount("/auth", authapifeature.Routes(authHandler))

	// Uploaded files (local storage only, when a URL prefix is configured)
	if (appCfg.StorageType == "local" || appCfg.StorageType == "") && appCfg.StorageLocalURL != "" {
		r.With(authn.RequireBearer).Handle(appCfg.StorageLocalURL+"/*",
			fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireBearer)

		tablesHandler := tablesfeature.NewHandler(deps.Postgres, appCfg.RowLimit, auditLogger, errLog, logger)
		r.Mount("/tables", tablesfeature.Routes(tablesHandler))

		foldersHandler := foldersfeature.NewHandler(deps.Postgres, auditLogger, errLog, logger)
		r.Mount("/folders", foldersfeature.Routes(foldersHandler))

		filesHandler := filesfeature.NewHandler(deps.Postgres, deps.FileStorage, appCfg.UploadMaxBytes, auditLogger, errLog, logger)
		r.Mount("/files", filesfeature.Routes(filesHandler))

		materialsHandler := materialsfeature.NewHandler(deps.Postgres, errLog, logger)
		r.Mount("/materials", materialsfeature.Routes(materialsHandler))

		auditHandler := auditlogfeature.NewHandler(deps.AuditStore, errLog, logger)
		r.Mount("/audit", auditlogfeature.Routes(auditHandler))
	})

	// JSON catch-alls for unmatched routes and methods
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}
