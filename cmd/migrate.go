/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/mautops/practica-gin/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to create or update database schema.
This command will:
- Create all required tables if they don't exist
- Update table schemas if needed
- Create indexes for optimal query performance

The command uses the database configuration from the config file or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		appLogger.Info("Running database migrations...")
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		appLogger.Info("Database migrations completed successfully")
		return nil
	},
}

// openDatabase 按配置连接数据库
func openDatabase() (*gorm.DB, error) {
	appLogger.WithFields(logrus.Fields{
		"driver": appConfig.Database.Driver,
		"host":   appConfig.Database.Host,
		"dbname": appConfig.Database.DBName,
	}).Info("Connecting to database")

	db, err := database.Connect(appConfig.Database, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
