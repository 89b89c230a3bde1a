package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    bool
	}{
		{"help flag", []string{"--help"}, "accepts security events over HTTP", false},
		{"short help flag", []string{"-h"}, "accepts security events over HTTP", false},
		{"invalid flag", []string{"--invalid-flag"}, "unknown flag: --invalid-flag", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, buf.String(), tt.expectedOutput)
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, flag := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q", flag)
	}
	// serve flags work without naming the subcommand
	for _, flag := range []string{"host", "port", "backend"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "root flag %q", flag)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{"serve", "version", "healthcheck"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}
