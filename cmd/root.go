package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/teamleave/leaveapi/internal/config"
	"github.com/teamleave/leaveapi/internal/directory"
)

var (
	cfgPath string
	cfg     *config.Config

	// dirRegistry holds the single directory client shared by the
	// commands. It stays unconfigured for deployments without a
	// directory.
	dirRegistry = directory.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "leaveapi",
	Short: "Leave API server for vacation request management",
	Long: `Leave API serves the internal vacation request application.
It renders the request and account form flows over HTTP and talks to
the company directory for authentication and provisioning.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(usersCmd)
}

// directoryClient resolves the shared directory client, configuring
// the registry on first use.
func directoryClient() (*directory.Client, error) {
	client, err := dirRegistry.Get()
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, directory.ErrNotInitialized) {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("directory integration is not configured (ldap_url is empty)")
	}
	if err := dirRegistry.Configure(directoryConfig(cfg)); err != nil {
		return nil, fmt.Errorf("failed to configure directory client: %w", err)
	}
	return dirRegistry.Get()
}

// directoryConfig maps the loaded file settings onto the directory
// client configuration.
func directoryConfig(cfg *config.Config) *directory.Config {
	return &directory.Config{
		URL:            cfg.LDAPURL,
		BaseDN:         cfg.BaseDN,
		SearchFilter:   cfg.SearchFilter,
		MailAttr:       cfg.MailAttr,
		FirstnameAttr:  cfg.FirstnameAttr,
		LastnameAttr:   cfg.LastnameAttr,
		LoginAttr:      cfg.LoginAttr,
		ManagerAttr:    cfg.ManagerAttr,
		CountryAttr:    cfg.CountryAttr,
		AdminDN:        cfg.AdminDN,
		SystemDN:       cfg.SystemDN,
		SystemPassword: cfg.SystemPassword,
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
