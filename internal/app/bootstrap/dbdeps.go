// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratadmin/internal/app/store/audit"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown.
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// PostgreSQL pool: every console table lives here
	Postgres *pgxpool.Pool

	// MongoDB audit sink; all three are nil when mongo_uri is blank
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	AuditStore    *audit.Store

	// FileStorage holds uploaded file content
	FileStorage storage.Store

	// Okta validates Okta access tokens; its key cache is shared by the
	// request path and the key refresh job
	Okta *auth.OktaVerifier
}
