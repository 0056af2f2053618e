/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/report"
)

var runAll bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Migrate the schema, then the route handlers",
	Long: `Augments the schema into the configured output file, then rewrites every
configured route handler in place. Use --all to discover handlers instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("run called")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := newMigrator(cmd, cfg)
		if err != nil {
			return err
		}

		rep := report.New(dryRun)
		targets, err := m.RouteTargets("", "", runAll)
		if err != nil {
			return err
		}
		outcomes, err := m.Run(targets)
		if err != nil {
			return err
		}
		rep.Add(outcomes...)
		return finish(cmd, rep)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runAll, "all", false, "Discover route handlers instead of using the configured list")
}
