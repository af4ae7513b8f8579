package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalRoot(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"/srv/units"}, out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "/srv/units", cfg.Root)
}

func TestParseFlagsOverridePositional(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"-root", "/flagged", "/positional"}, out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "/flagged", cfg.Root)
}

func TestParseFullOptionSet(t *testing.T) {
	out := &bytes.Buffer{}
	args := []string{
		"-config", "reload.hcl",
		"-r", "/srv/units",
		"-extension", ".py",
		"-interval", "0.25",
		"-log-format", "json",
		"-log-level", "debug",
		"-watch",
	}
	cfg, exit, err := Parse(args, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "reload.hcl", cfg.SettingsPath)
	assert.Equal(t, "/srv/units", cfg.Root)
	assert.Equal(t, ".py", cfg.Extension)
	assert.Equal(t, 0.25, cfg.Interval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Watch)
}

func TestParseNoRootPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string][]string{
		"log format": {"-log-format", "xml", "/srv"},
		"log level":  {"-log-level", "loud", "/srv"},
		"interval":   {"-interval", "-1", "/srv"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
