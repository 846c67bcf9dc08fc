package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/labsbot/internal/dispatch"
)

const testBundle = `{
  "responses": {"about_text": "We build AI products.", "zen": "See {links.zen} and {links.gone}"},
  "links": {"zen": "https://zenthink.example"},
  "commands_map": {"about": ["about_text"], "zenthink": ["zen", "missing"]},
  "meta": {"priority_products": ["ZenThink AI"]}
}`

func writeFixture(t *testing.T) (configPath, bundlePath string) {
	t.Helper()
	dir := t.TempDir()
	bundlePath = filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(bundlePath, []byte(testBundle), 0o644))
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("knowledge:\n  path: "+bundlePath+"\n"), 0o644))
	return configPath, bundlePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	configPath, bundlePath := writeFixture(t)

	out, err := execute(t, "check", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "commands:  about, zenthink")
	assert.Contains(t, out, "zenthink -> missing")
	assert.Contains(t, out, "{links.gone}")

	_, err = execute(t, "check", "--strict", bundlePath)
	require.Error(t, err)
}

func TestCheckCommandBrokenBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"responses": `), 0o644))

	_, err := execute(t, "check", path)
	require.Error(t, err)
}

func TestAskCommand(t *testing.T) {
	configPath, _ := writeFixture(t)

	out, err := execute(t, "ask", "--config", configPath, "!About")
	require.NoError(t, err)
	assert.Equal(t, "We build AI products.\n\n", out)

	out, err = execute(t, "ask", "--config", configPath, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "!zenthink")

	_, err = execute(t, "ask", "--config", configPath, "nope")
	require.ErrorIs(t, err, dispatch.ErrUnknownCommand)
}
