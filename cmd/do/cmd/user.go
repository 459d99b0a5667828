package cmd

import (
	"fmt"

	"github.com/proovit/proovit/internal/db"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/spf13/cobra"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage profiles",
	}

	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var phone, username, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile and print an API token for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			err = db.RunMigrations(database.DB, cfg.DBDriver)
			if err != nil {
				return err
			}

			profiles := service.NewProfileService(
				repository.NewProfileRepository(database),
				repository.NewFriendshipRepository(database),
				repository.NewGoalRepository(database),
				repository.NewStreakRepository(database),
				cfg.UsernameSearchLimit,
			)

			var fullName *string
			if name != "" {
				fullName = &name
			}

			profile, err := profiles.Create(cmd.Context(), phone, username, fullName)
			if err != nil {
				return err
			}

			token, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry).GenerateJWT(profile)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id:    %s\ntoken: %s\n", profile.ID, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "phone number in E.164 format")
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}
