/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/migrator"
	"github.com/tristendillon/tenantize/core/report"
)

var rootCmd = &cobra.Command{
	Use:   "tenantize",
	Short: "Migrate a single-tenant Prisma + Next.js app to multi-tenancy.",
	Long: `Tenantize rewrites a Prisma schema and the Next.js route handlers built on it
so every tenant-owned record carries a tenant reference and every handler
filters, stamps and checks ownership by tenant.

Runs are idempotent: already migrated models and files are reported and left alone.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		return logger.SetLogFile(logfile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

var (
	cfgFile    string
	logfile    string
	verbose    bool
	dryRun     bool
	showDiff   bool
	reportPath string
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./tenantize.yaml)")
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Compute every change but write nothing")
	rootCmd.PersistentFlags().BoolVar(&showDiff, "diff", false, "Print a unified diff of every change")
	rootCmd.PersistentFlags().StringVar(&reportPath, "report", "", "Write a JSON report of the run to this file")
}

// loadConfig reads and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newMigrator(cmd *cobra.Command, cfg *config.Config) (*migrator.Migrator, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	m := migrator.NewMigrator(wd, cfg, migrator.Options{
		DryRun: dryRun,
		Diff:   showDiff,
		Output: cmd.OutOrStdout(),
	})
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// finish prints the summary and writes the JSON report when requested.
func finish(cmd *cobra.Command, rep *report.Report) error {
	rep.Finish()
	rep.Summary(cmd.OutOrStdout())

	if reportPath == "" {
		return nil
	}
	if err := rep.WriteJSON(reportPath); err != nil {
		return err
	}
	logger.Info("Report %s written to %s", rep.RunID, reportPath)
	return nil
}
