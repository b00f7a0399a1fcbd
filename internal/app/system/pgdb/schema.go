package pgdb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Column names are camelCase so the managed tables look like any other table
// to the generic table editor (which skips id, createdAt and updatedAt).
//
// folders."parentId" cascades: deleting a folder deletes its subtree.
// files."folderId" is set null: files of a deleted folder move to the root.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		password TEXT NOT NULL,
		"createdAt" TIMESTAMP NOT NULL DEFAULT now(),
		"updatedAt" TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id SERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT,
		department TEXT,
		quantity INTEGER NOT NULL DEFAULT 0,
		unit TEXT,
		price NUMERIC(12,2),
		"createdAt" TIMESTAMP NOT NULL DEFAULT now(),
		"updatedAt" TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS folders (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		"parentId" INTEGER REFERENCES folders(id) ON DELETE CASCADE,
		"order" INTEGER NOT NULL DEFAULT 0,
		"createdAt" TIMESTAMP NOT NULL DEFAULT now(),
		"updatedAt" TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id SERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		"originalName" TEXT NOT NULL,
		"mimeType" TEXT NOT NULL,
		"fileSize" BIGINT NOT NULL,
		"filePath" TEXT NOT NULL,
		description TEXT,
		category TEXT DEFAULT 'general',
		"folderId" INTEGER REFERENCES folders(id) ON DELETE SET NULL,
		"order" INTEGER NOT NULL DEFAULT 0,
		"uploadedBy" TEXT NOT NULL,
		"createdAt" TIMESTAMP NOT NULL DEFAULT now(),
		"updatedAt" TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_folders_parent_order ON folders ("parentId", "order")`,
	`CREATE INDEX IF NOT EXISTS idx_files_folder_order ON files ("folderId", "order")`,
	`CREATE INDEX IF NOT EXISTS idx_files_created ON files ("createdAt" DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_materials_updated ON materials ("updatedAt" DESC)`,
}

// EnsureSchema creates the console's tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, q Querier, logger *zap.Logger) error {
	for i, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	logger.Info("postgres schema ensured", zap.Int("statements", len(schemaStatements)))
	return nil
}
