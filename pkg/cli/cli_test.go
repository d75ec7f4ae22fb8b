package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainSpec = `{
  "name": "Subspace Gemini 1",
  "id": "subspace_gemini_1b",
  "bootNodes": [
    "/dns/boot-node-0.gemini-1b.subspace.network/tcp/30333/p2p/12D3KooWF9CgB8bDvWCvzPPZrWG3awjhS7gPFu7MzNPkF9F9xWwc"
  ],
  "telemetryEndpoints": [["wss://telemetry.subspace.network/submit/", 1]],
  "properties": {"ss58Format": 2254}
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeChainSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gemini.json")
	require.NoError(t, os.WriteFile(path, []byte(chainSpec), 0644))
	return path
}

func TestNodeNameCommand(t *testing.T) {
	out, err := execute(t, "node-name")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+-[a-z]+-\d{4}\n$`), out)
}

func TestAddressCommands(t *testing.T) {
	alice := "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

	out, err := execute(t, "address", "encode", alice)
	require.NoError(t, err)
	assert.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY\n", out)

	out, err = execute(t, "address", "encode", alice, "--format", "0")
	require.NoError(t, err)
	assert.Equal(t, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5\n", out)

	out, err = execute(t, "address", "decode", "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	require.NoError(t, err)
	assert.Contains(t, out, alice)
	assert.Contains(t, out, "42")

	_, err = execute(t, "address", "encode", "0xzz")
	assert.Error(t, err)
	_, err = execute(t, "address", "decode", "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	spec := writeChainSpec(t)
	base := t.TempDir()

	out, err := execute(t, "config", "--chain", spec, "--base-path", base)
	require.NoError(t, err)
	assert.Contains(t, out, "127.0.0.1:9944")
	assert.Contains(t, out, filepath.Join(base, "subspace_gemini_1b", "network", "secret_ed25519"))
	assert.Contains(t, out, "/ip4/0.0.0.0/tcp/30333")
}

func TestConfigCheckOnlyValidates(t *testing.T) {
	spec := writeChainSpec(t)

	out, err := execute(t, "config", "--chain", spec, "--base-path", t.TempDir(), "--check")
	require.NoError(t, err)
	assert.Equal(t, "configuration is valid\n", out)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"Dev","id":"dev","bootNodes":["/ip4/10.0.0.1/tcp/30333"]}`), 0644))
	out, err = execute(t, "config", "--chain", bad, "--base-path", t.TempDir(), "--check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem")
	assert.Empty(t, out)
}

func TestCommandsRequireChain(t *testing.T) {
	for _, args := range [][]string{{"config"}, {"run"}, {"key", "inspect"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, append(args, "--base-path", t.TempDir())...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--chain")
		})
	}
}

func TestKeyGenerateAndInspect(t *testing.T) {
	spec := writeChainSpec(t)
	base := t.TempDir()
	keyFile := filepath.Join(base, "subspace_gemini_1b", "network", "secret_ed25519")

	generated, err := execute(t, "key", "generate", "--output", keyFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated, "12D3KooW"))

	inspected, err := execute(t, "key", "inspect", "--chain", spec, "--base-path", base)
	require.NoError(t, err)
	assert.Equal(t, generated, inspected)

	inspected, err = execute(t, "key", "inspect", keyFile)
	require.NoError(t, err)
	assert.Equal(t, generated, inspected)
}
