// cmd/stratadmin/seed.go
package main

import (
	"context"

	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/seeding"
	"github.com/dalemusser/stratadmin/internal/app/system/timeouts"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed [flags]",
	Short: "Create demo users and sample materials",
	Long: `Apply the schema, then create the demo users (password "admin123") and
three sample materials. Safe to run more than once.

Examples:
  stratadmin seed
  stratadmin seed -v
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
		res, err := seeding.SeedAll(ctx, pool, logger)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen, color.Bold)
		yellow := color.New(color.FgYellow)
		cyan := color.New(color.FgCyan)

		green.Printf("✓ %d users ready\n", res.Users)
		for _, u := range seeding.DefaultUsers {
			cyan.Printf("    %-24s %s\n", u.Email, u.Name)
		}
		green.Printf("✓ %d materials created\n", res.MaterialsCreated)
		if res.MaterialsSkipped > 0 {
			yellow.Printf("  %d materials already present\n", res.MaterialsSkipped)
		}
		cyan.Printf("  demo password: %s\n", seeding.DefaultPassword)
		return nil
	},
}
