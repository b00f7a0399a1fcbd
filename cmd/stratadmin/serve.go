// cmd/stratadmin/serve.go
package main

import (
	"github.com/dalemusser/stratadmin/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:                "serve [waffle flags]",
	Short:              "Run the HTTP API",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		passArgs(args)
		ctx, stop := signalContext()
		defer stop()
		return app.Run(ctx, bootstrap.Hooks)
	},
}
