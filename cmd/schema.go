/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tristendillon/tenantize/core/report"
)

var (
	schemaInput  string
	schemaOutput string
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Add tenant fields and definitions to the Prisma schema",
	Long: `Reads the schema input, inserts the tenant definitions, adds the tenant
field, relation and index to every target model, renames legacy marker
fields and writes the result to the output file. The input is never modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if schemaInput != "" {
			cfg.Schema.Input = schemaInput
		}
		if schemaOutput != "" {
			cfg.Schema.Output = schemaOutput
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		m, err := newMigrator(cmd, cfg)
		if err != nil {
			return err
		}

		rep := report.New(dryRun)
		outcomes, err := m.MigrateSchema()
		if err != nil {
			return err
		}
		rep.Add(outcomes...)
		return finish(cmd, rep)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaInput, "input", "", "Schema file to read")
	schemaCmd.Flags().StringVar(&schemaOutput, "output", "", "Schema file to write")
}
