// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadmin/internal/app/store/audit"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// ConnectDB connects to databases or other backends.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. PostgreSQL is required. MongoDB is connected only when mongo_uri is
// set and then serves as the audit sink.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	pool, err := pgdb.Connect(ctx, appCfg.PostgresURL, pgdb.PoolConfig{
		MaxConns: appCfg.PostgresMaxConns,
		MinConns: appCfg.PostgresMinConns,
	}, logger)
	if err != nil {
		return DBDeps{}, err
	}

	deps := DBDeps{Postgres: pool}

	if appCfg.MongoURI != "" {
		// Configure MongoDB connection pool
		poolCfg := wafflemongo.DefaultPoolConfig()
		if appCfg.MongoMaxPoolSize > 0 {
			poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
		}
		if appCfg.MongoMinPoolSize > 0 {
			poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
		}

		client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
		if err != nil {
			pool.Close()
			return DBDeps{}, err
		}

		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		deps.AuditStore = audit.New(deps.MongoDatabase)

		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
			zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
		)
	} else {
		logger.Info("MongoDB not configured; audit events go to the application log only")
	}

	store, err := newFileStorage(ctx, appCfg, logger)
	if err != nil {
		closeDeps(ctx, deps, logger)
		return DBDeps{}, err
	}
	deps.FileStorage = store

	deps.Okta = auth.NewOktaVerifier(auth.OktaConfig{
		Issuer:   appCfg.OktaIssuer,
		ClientID: appCfg.OktaClientID,
		Audience: appCfg.OktaAudience,
	}, logger)
	if deps.Okta.Enabled() {
		logger.Info("Okta token validation enabled", zap.String("issuer", appCfg.OktaIssuer))
	}

	return deps, nil
}

// newFileStorage initializes the configured storage backend.
func newFileStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		store, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3/CloudFront file storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		logger.Info("initialized local file storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}
}

// EnsureSchema creates the console tables and, when the audit sink is
// configured, its indexes.
//
// The context has a timeout based on coreCfg.IndexBootTimeout, so long-running
// migrations should respect context cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring PostgreSQL schema")
	if err := pgdb.EnsureSchema(ctx, deps.Postgres, logger); err != nil {
		logger.Error("failed to ensure schema", zap.Error(err))
		return err
	}

	if deps.AuditStore != nil {
		logger.Info("ensuring audit indexes")
		if err := deps.AuditStore.EnsureIndexes(ctx); err != nil {
			logger.Error("failed to ensure audit indexes", zap.Error(err))
			return err
		}
	}

	logger.Info("database schema ensured successfully")
	return nil
}
