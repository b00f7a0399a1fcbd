// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/stratadmin/internal/app/store/users"
	"github.com/dalemusser/stratadmin/internal/app/system/authutil"
	"github.com/dalemusser/stratadmin/internal/app/system/tasks"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin user if configured
	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed admin user", zap.Error(err))
			return err
		}
	}

	startTaskRunner(ctx, appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// jobStatus reports the running jobs, or nothing before Startup.
func jobStatus() []tasks.Status {
	if taskRunner == nil {
		return nil
	}
	return taskRunner.Status()
}

// startTaskRunner registers the enabled background jobs and starts them.
func startTaskRunner(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if deps.Okta != nil && deps.Okta.Enabled() && appCfg.OktaKeysRefresh > 0 {
		taskRunner.Register(tasks.OktaKeysJob(deps.Okta, appCfg.OktaKeysRefresh))
	}
	if appCfg.PoolStatsInterval > 0 {
		taskRunner.Register(tasks.PoolStatsJob(deps.Postgres, appCfg.PoolStatsInterval, logger))
	}
	if deps.AuditStore != nil && appCfg.AuditRetention > 0 {
		taskRunner.Register(tasks.AuditRetentionJob(deps.AuditStore, appCfg.AuditRetention, logger))
	}

	taskRunner.Start(ctx)
}

// ensureAdminUser creates the configured admin or, when it exists, resets
// its name and password. A blank password makes the account Okta-managed.
func ensureAdminUser(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	password := models.OktaManagedPassword
	if appCfg.SeedAdminPassword != "" {
		hash, err := authutil.HashPassword(appCfg.SeedAdminPassword)
		if err != nil {
			return err
		}
		password = hash
	}

	name := appCfg.SeedAdminName
	if name == "" {
		name = "Admin"
	}

	u, err := userstore.New(deps.Postgres).Upsert(ctx, appCfg.SeedAdminEmail, name, password)
	if err != nil {
		return err
	}

	logger.Info("admin user ensured",
		zap.String("email", u.Email),
		zap.Int("user_id", u.ID),
		zap.Bool("okta_managed", u.IsOktaManaged()))
	return nil
}
