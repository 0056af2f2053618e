/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/template_engine"
)

var (
	force bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default tenantize.yaml",
	Long:  `Writes a commented tenantize.yaml with the built-in targets, routes and tenant field into dir (default: current directory).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("init called")
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, config.FileName)

		if _, err := os.Stat(path); err == nil {
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists. Use --force to overwrite.\n", path)
				return nil
			}
			logger.Debug("%s already exists. Overwriting.", path)
		}

		engine := template_engine.NewTemplateEngine()
		if err := engine.GenerateFile(template_engine.TEMPLATES.InitConfig, path, config.Default()); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully generated %s\n", path)

		fmt.Fprintf(cmd.OutOrStdout(), "Next Steps:\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  - review the targets and routes in %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "  - tenantize run --dry-run --diff\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing files")
}
