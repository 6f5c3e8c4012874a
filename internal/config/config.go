package config

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN)
	DatabaseURL string `json:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `json:"server_addr"`

	// Secret used to sign session cookies
	SessionSecret string `json:"session_secret"`

	// Enable debug logging
	Debug bool `json:"debug"`

	// Directory (LDAP) integration settings live at the top level of
	// the config file (ldap_url, basedn, ...). When ldap_url is empty
	// the directory integration is disabled and authentication falls
	// back to locally stored credentials.
	DirectoryConfig
}

// DirectoryConfig holds the LDAP directory connection settings. All
// fields are required whenever LDAPURL is set; a partially configured
// directory fails Load. The struct is read once at startup and never
// mutated afterwards.
type DirectoryConfig struct {
	LDAPURL      string `json:"ldap_url"`
	BaseDN       string `json:"basedn"`
	SearchFilter string `json:"search_filter"` // template with one %s placeholder

	MailAttr      string `json:"mail_attr"`
	FirstnameAttr string `json:"firstname_attr"`
	LastnameAttr  string `json:"lastname_attr"`
	LoginAttr     string `json:"login_attr"`
	ManagerAttr   string `json:"manager_attr"`
	CountryAttr   string `json:"country_attr"`

	AdminDN        string `json:"admin_dn"`
	SystemDN       string `json:"system_dn"`
	SystemPassword string `json:"system_pass"`
}

// Enabled reports whether the directory integration is configured.
func (d *DirectoryConfig) Enabled() bool {
	return d.LDAPURL != ""
}

// Load reads configuration from the given YAML file, then applies
// environment variable overrides for the deployment-specific fields.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DatabaseURL: "leaveapi.db",
		ServerAddr:  "localhost:8080",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session_secret is required")
	}

	if cfg.Enabled() {
		if missing := cfg.missingKeys(); len(missing) > 0 {
			return nil, fmt.Errorf("incomplete directory configuration, missing keys: %s",
				strings.Join(missing, ", "))
		}
	}

	return cfg, nil
}

// missingKeys returns the config file keys that are required for the
// directory integration but absent.
func (d *DirectoryConfig) missingKeys() []string {
	required := []struct {
		key   string
		value string
	}{
		{"basedn", d.BaseDN},
		{"search_filter", d.SearchFilter},
		{"mail_attr", d.MailAttr},
		{"firstname_attr", d.FirstnameAttr},
		{"lastname_attr", d.LastnameAttr},
		{"login_attr", d.LoginAttr},
		{"manager_attr", d.ManagerAttr},
		{"country_attr", d.CountryAttr},
		{"admin_dn", d.AdminDN},
		{"system_dn", d.SystemDN},
		{"system_pass", d.SystemPassword},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	return missing
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
