/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default form templates",
	Long: `Create the form templates (postulacion, bitacora, evaluacion_pr1,
evaluacion_pr2) that are missing from the database.
Existing templates are left untouched. Use --file to load them from a YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = appConfig.Forms.SeedFile
		}

		seeds, err := integration.LoadSeedTemplates(file)
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		created, err := integration.NewTemplateManager(db).Seed(cmd.Context(), seeds)
		if err != nil {
			return fmt.Errorf("failed to seed templates: %w", err)
		}
		appLogger.WithField("created", created).Info("Form templates seeded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "", "Seed YAML file (default: built-in templates)")
}
