package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadnode.yaml")
	content := "network_name: TestNet\nchannel: 20\nmaster_key: \"00112233445566778899aabbccddeeff\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "TestNet", cfg.NetworkName)
	assert.Equal(t, uint8(20), cfg.Channel)
	assert.Len(t, cfg.MasterKey, 16)
	// Unset fields keep their Default() values.
	assert.Equal(t, "rsdn", cfg.Mode)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	apply := Flags(fs)
	require.NoError(t, fs.Parse([]string{"--channel", "18"}))

	cfg := Default()
	apply(&cfg)
	assert.Equal(t, uint8(18), cfg.Channel)
	assert.Equal(t, "OpenThread", cfg.NetworkName) // untouched flag leaves the default
}
