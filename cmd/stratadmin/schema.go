// cmd/stratadmin/schema.go
package main

import (
	"context"

	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/timeouts"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [flags]",
	Short: "Create the console tables if they do not exist",
	Long: `Create users, materials, folders and files with their indexes and
foreign keys. Existing tables are left untouched.

Examples:
  stratadmin schema
  stratadmin schema --postgres_url postgres://localhost/console
`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		args, verbose := verboseArg(args)
		passArgs(args)
		logger := cliLogger(verbose)
		defer func() { _ = logger.Sync() }()

		_, appCfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
		defer cancel()

		pool, err := pgdb.Connect(ctx, appCfg.PostgresURL, pgdb.PoolConfig{MaxConns: 2}, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pgdb.EnsureSchema(ctx, pool, logger); err != nil {
			return err
		}
		color.New(color.FgGreen, color.Bold).Println("✓ schema is up to date")
		return nil
	},
}
