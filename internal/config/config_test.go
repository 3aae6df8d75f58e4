package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meherc99/Gmail-Analyzer/internal/config"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	config.RegisterFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	cmd := newTestCmd()
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, "credentials.json", cfg.CredentialsFile)
	assert.Equal(t, "token.json", cfg.TokenFile)
	assert.Equal(t, "", cfg.EnvFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, config.TokenFileSet(cmd))
}

func TestLoadOverrides(t *testing.T) {
	cmd := newTestCmd()
	cmd.SetArgs([]string{"--token-file", "other.json", "--log-level", "debug"})
	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, "other.json", cfg.TokenFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, config.TokenFileSet(cmd))
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	cmd := newTestCmd()
	cmd.SetArgs([]string{"--log-level", "loud"})
	require.NoError(t, cmd.Execute())

	_, err := config.Load(cmd)
	assert.ErrorContains(t, err, "invalid log-level")
}
