package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "airsync", cmd.Use)
	assert.Contains(t, cmd.Long, "Exchange ActiveSync")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"login", "versions", "folders", "sync", "send", "estimate", "fetch", "mark-read", "delete", "move", "push", "decode"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "config.yaml", filepath.Base(configFlag.DefValue))
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"login", "host", ""},
		{"login", "ssl", "true"},
		{"login", "password-stdin", "false"},
		{"login", "no-verify", "false"},
		{"sync", "once", "false"},
		{"sync", "no-outbox", "false"},
		{"folders", "offline", "false"},
		{"mark-read", "unread", "false"},
		{"mark-read", "local", "false"},
		{"delete", "local", "false"},
		{"push", "off", "false"},
	}
	cmd := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "decode", "x.wbxml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecute(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.wbxml")

	t.Run("text error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := Execute(context.Background(), []string{"decode", missing}, strings.NewReader(""), &stdout, &stderr)
		assert.Equal(t, ExitCommandError, code)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Error: failed to read input")
	})

	t.Run("json error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := Execute(context.Background(), []string{"--format", "json", "decode", missing}, strings.NewReader(""), &stdout, &stderr)
		assert.Equal(t, ExitCommandError, code)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "COMMAND", resp.Error.Code)
	})

	t.Run("usage error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := Execute(context.Background(), []string{"fetch"}, strings.NewReader(""), &stdout, &stderr)
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, stderr.String(), "accepts 1 arg")
	})
}
