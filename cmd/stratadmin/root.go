// cmd/stratadmin/root.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/stratadmin/internal/app/bootstrap"
	"github.com/dalemusser/waffle/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "stratadmin",
	Short: "Admin console backend: table editor, file library and materials",
	Long: `stratadmin serves the admin console API.

Examples:

  stratadmin serve
  stratadmin schema
  stratadmin seed

Configuration comes from config files, STRATADMIN_* environment variables
(also read from .env) and --flags, which are passed through to each command.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadEnv()
	},
}

// Execute runs the CLI.
func Execute() {
	rootCmd.AddCommand(serveCmd, schemaCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		color.Yellow("ℹ could not read .env: %v", err)
	}
}

// passArgs hands a subcommand's arguments to the WAFFLE config loader, which
// parses its own flags from os.Args.
func passArgs(args []string) {
	os.Args = append([]string{os.Args[0]}, args...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// cliLogger logs to stderr in a human-readable form.
func cliLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig loads and validates configuration the way the server does.
func loadConfig(logger *zap.Logger) (*config.CoreConfig, bootstrap.AppConfig, error) {
	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return nil, bootstrap.AppConfig{}, err
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return nil, bootstrap.AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

// verboseArg strips -v/--verbose from args, which WAFFLE does not know.
func verboseArg(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	verbose := false
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			verbose = true
			continue
		}
		out = append(out, a)
	}
	return out, verbose
}
