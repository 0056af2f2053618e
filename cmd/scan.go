/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
)

var saveScan bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List discovered route handlers and their migration state",
	Long: `Walks the routes root, matches the discovery pattern and prints every
handler with its methods and migration state. Nothing is modified unless
--save is given, which stores the discovered list in the config file.`,
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

		tree, err := m.Scan()
		if err != nil {
			return err
		}
		tree.PrintTree(logger.INFO)

		counts := make(map[models.MigrationState]int)
		for _, rf := range tree.Routes {
			counts[rf.State]++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d handlers: %d unmigrated, %d already migrated, %d skipped, %d unreadable\n",
			len(tree.Routes), counts[models.StateUnmigrated], counts[models.StateAlreadyMigrated], counts[models.StateSkipped], counts[models.StateFailed])

		if !saveScan {
			return nil
		}
		cfg.Routes.Files = make([]config.RouteEntry, 0, len(tree.Routes))
		for _, rf := range tree.Routes {
			cfg.Routes.Files = append(cfg.Routes.Files, config.RouteEntry{Path: rf.RelPath, Label: rf.Label})
		}
		path := cfgFile
		if path == "" {
			path = config.FileName
		}
		if err := config.Write(path, cfg); err != nil {
			return err
		}
		logger.Info("Saved %d route files to %s", len(cfg.Routes.Files), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&saveScan, "save", false, "Store the discovered handlers as routes.files in the config file")
}
