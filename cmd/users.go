package cmd

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/spf13/cobra"

	"github.com/teamleave/leaveapi/internal/db/bunx"
	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/directory"
	"github.com/teamleave/leaveapi/internal/repository"
	"github.com/teamleave/leaveapi/internal/server"
)

var (
	loginFlag      string
	emailFlag      string
	firstnameFlag  string
	lastnameFlag   string
	managerFlag    string
	countryFlag    string
	unitFlag       string
	adminFlag      bool
	supervisorFlag bool
	passwordFlag   string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long:  `Commands for provisioning user accounts in the directory and the local store.`,
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision a new user account",
	Long: `Creates the local account and, when the directory integration is
enabled, the matching directory entry. The generated initial password
is printed once and never stored in clear.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginFlag == "" {
			return fmt.Errorf("--login flag is required")
		}
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}
		if countryFlag == "" {
			return fmt.Errorf("--country flag is required")
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		userRepo := repository.NewBunUserRepository(db)

		user := &models.User{
			Login:        loginFlag,
			Email:        emailFlag,
			FirstName:    firstnameFlag,
			LastName:     lastnameFlag,
			ManagerLogin: managerFlag,
			Country:      countryFlag,
			Admin:        adminFlag,
			Supervisor:   supervisorFlag,
		}

		ctx := context.Background()

		if cfg.Enabled() {
			if passwordFlag != "" {
				return fmt.Errorf("--password is only valid without a directory; directory accounts get a generated password")
			}
			client, err := directoryClient()
			if err != nil {
				return err
			}
			password, err := client.AddUser(directory.NewUser{
				Login:     loginFlag,
				Manager:   managerFlag,
				Country:   countryFlag,
				FirstName: firstnameFlag,
				LastName:  lastnameFlag,
				Email:     emailFlag,
				Unit:      unitFlag,
			})
			if err != nil {
				return fmt.Errorf("failed to create directory entry: %w", err)
			}
			fmt.Printf("Directory entry created. Initial password: %s\n", password)
		} else {
			if passwordFlag == "" {
				return fmt.Errorf("--password flag is required when the directory is disabled")
			}
			hash, err := server.HashLocalPassword(passwordFlag)
			if err != nil {
				return err
			}
			user.PasswordHash = &hash
		}

		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create local account: %w", err)
		}

		fmt.Printf("User %s created (id %d)\n", user.Login, user.ID)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&loginFlag, "login", "", "Login of the user (required)")
	usersAddCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user (required)")
	usersAddCmd.Flags().StringVar(&firstnameFlag, "firstname", "", "First name of the user")
	usersAddCmd.Flags().StringVar(&lastnameFlag, "lastname", "", "Last name of the user")
	usersAddCmd.Flags().StringVar(&managerFlag, "manager", "", "Manager login (or manager DN with a directory)")
	usersAddCmd.Flags().StringVar(&countryFlag, "country", "", "Country subtree of the user (required)")
	usersAddCmd.Flags().StringVar(&unitFlag, "unit", "", "Organizational unit for the directory entry")
	usersAddCmd.Flags().BoolVar(&adminFlag, "admin", false, "Grant the administrator role")
	usersAddCmd.Flags().BoolVar(&supervisorFlag, "supervisor", false, "Grant the supervisor role")
	usersAddCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the local account (directory disabled only)")

	usersCmd.AddCommand(usersAddCmd)
}
