// Package cmd holds the command line interface: the API server and the
// terminal tools that print protocols, CIDs and prescription schedules.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/giygas/protocolos-api/config"
	"github.com/giygas/protocolos-api/data"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/protocolparser"
	"github.com/giygas/protocolos-api/scheduler"
	"github.com/spf13/cobra"
)

// app carries the state shared by every command
type app struct {
	envFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCmd builds the command tree. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "protocolos-api",
		Short:         "Chemotherapy protocol and prescription API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "file with environment variables, ignored when missing")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log loading progress to stderr")

	root.AddCommand(
		newServeCmd(a),
		newScheduleCmd(a),
		newProtocolsCmd(a),
		newCIDsCmd(a),
	)

	return root
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) loadConfig() error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// initConsoleLogger keeps terminal commands quiet unless --verbose is set
func (a *app) initConsoleLogger() {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logging.InitLoggerWithEnvironment("", a.cfg.Env, level, a.cfg.LogRetentionWeeks, a.cfg.MaxLogFileSize)
}

func (a *app) newParser() *protocolparser.ProtocolParser {
	return protocolparser.NewProtocolParser(protocolparser.Options{
		ProtocolsURL: a.cfg.ProtocolsURL,
		CIDsURL:      a.cfg.CIDsURL,
		Delimiter:    a.cfg.CSVDelimiter,
		Timeout:      a.cfg.DownloadTimeout,
		RetryMax:     a.cfg.DownloadRetries,
	})
}

// loadTables performs one load of both sheets for a terminal command
func (a *app) loadTables(ctx context.Context) (*data.DataContainer, error) {
	dc := data.NewDataContainer()
	if err := scheduler.NewScheduler(dc, a.newParser(), a.cfg.RefreshAt).Refresh(ctx); err != nil {
		return nil, err
	}
	return dc, nil
}
