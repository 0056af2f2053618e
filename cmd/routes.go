/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/report"
)

var (
	routeFile  string
	routeLabel string
	routesAll  bool
)

// routesCmd represents the routes command
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Rewrite route handlers for tenant isolation",
	Long: `Rewrites route handlers in place: swaps the auth helper, filters reads by
tenant, stamps creates with the tenant and checks ownership before updates
and deletes. Files already carrying the marker are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := newMigrator(cmd, cfg)
		if err != nil {
			return err
		}

		rep := report.New(dryRun)
		targets, err := m.RouteTargets(routeFile, routeLabel, routesAll)
		if err != nil {
			return err
		}
		rep.Add(m.MigrateRoutes(targets)...)
		return finish(cmd, rep)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVar(&routeFile, "file", "", "Migrate a single handler file, relative to the routes root")
	routesCmd.Flags().StringVar(&routeLabel, "label", "", "Label for --file (derived from the path when empty)")
	routesCmd.Flags().BoolVar(&routesAll, "all", false, "Discover route handlers instead of using the configured list")
	routesCmd.MarkFlagsMutuallyExclusive("file", "all")
}
