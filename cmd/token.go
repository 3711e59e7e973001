/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"time"

	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/spf13/cobra"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for a student or coordinator",
	Long: `Issue a signed session token for local development and integration tests.
Company access tokens are not issued here: they are created when a
postulation is submitted and sent to the company by email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		actor := integration.Actor{
			ID:    id,
			Role:  statemachine.Role(role),
			Name:  name,
			Email: email,
		}
		token, err := auth.NewSessionValidator(appConfig.Auth).IssueToken(actor, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("id", "", "User ID")
	tokenCmd.Flags().String("role", string(statemachine.RoleStudent), "Role: alumno or coordinador")
	tokenCmd.Flags().String("name", "", "Display name")
	tokenCmd.Flags().String("email", "", "Email address")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("id")
}
