// Package config defines the global CLI options shared by every command.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Config captures the global options: where the OAuth client credentials and
// the cached token live, and how to log.
type Config struct {
	CredentialsFile string
	TokenFile       string
	EnvFile         string
	LogLevel        string
}

// RegisterFlags attaches the global flags to the root command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("credentials-file", "credentials.json", "Path to the OAuth client secret JSON downloaded from the Cloud console")
	flags.String("token-file", "token.json", "Path to the cached OAuth token")
	flags.String("env-file", "", "Optional dotenv file providing OAUTH_GOOGLE_CLIENT_ID and OAUTH_GOOGLE_CLIENT_SECRET")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
}

// Load reads the global flags of the executed command into a Config.
func Load(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	credentialsFile, err := flags.GetString("credentials-file")
	if err != nil {
		return Config{}, err
	}
	tokenFile, err := flags.GetString("token-file")
	if err != nil {
		return Config{}, err
	}
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}

	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid log-level %q", logLevel)
	}

	return Config{
		CredentialsFile: credentialsFile,
		TokenFile:       tokenFile,
		EnvFile:         envFile,
		LogLevel:        logLevel,
	}, nil
}

// TokenFileSet reports whether --token-file was given explicitly. The prune
// command uses this to default to a separate token for the modify scope.
func TokenFileSet(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("token-file")
}
