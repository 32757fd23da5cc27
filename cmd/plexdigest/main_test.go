package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "plexdigest dev\n", out.String())
}

func TestRunFlags(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--dry-run", "-o", "/tmp/digest.html", "--days", "14"}))

	dryRun, err := cmd.Flags().GetBool("dry-run")
	require.NoError(t, err)
	assert.True(t, dryRun)

	output, err := cmd.Flags().GetString("output")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/digest.html", output)

	days, err := cmd.Flags().GetInt("days")
	require.NoError(t, err)
	assert.Equal(t, 14, days)
}

func TestRunFailsWithoutConfiguration(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("PLEX_URL", "")
	t.Setenv("PLEX_TOKEN", "")

	root := newRootCmd()
	root.SetArgs([]string{"run", "--dry-run"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLEX_URL")
}
