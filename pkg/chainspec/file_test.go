package chainspec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gemini = `{
  "name": "Subspace Gemini 1",
  "id": "subspace_gemini_1b",
  "chainType": "Live",
  "bootNodes": [
    "/dns/boot-node-0.gemini-1b.subspace.network/tcp/30333/p2p/12D3KooWF9CgB8bDvWCvzPPZrWG3awjhS7gPFu7MzNPkF9F9xWwc"
  ],
  "telemetryEndpoints": [["wss://telemetry.subspace.network/submit/", 1]],
  "protocolId": "subspace-gemini-1b",
  "properties": {"ss58Format": 2254, "tokenDecimals": 18, "tokenSymbol": "tSSC"},
  "genesis": {"raw": {"top": {}}}
}`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(gemini))
	require.NoError(t, err)

	assert.Equal(t, "subspace_gemini_1b", spec.ID())
	assert.Len(t, spec.BootNodes(), 1)
	assert.Equal(t, []TelemetryEndpoint{{URL: "wss://telemetry.subspace.network/submit/", Verbosity: 1}}, spec.TelemetryEndpoints())

	v, ok := spec.Property("ss58Format")
	require.True(t, ok)
	assert.Equal(t, json.Number("2254"), v)

	_, ok = spec.Property("missing")
	assert.False(t, ok)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `nope`},
		{"missing id", `{"name": "x"}`},
		{"bad telemetry tuple", `{"id": "x", "telemetryEndpoints": [["wss://a"]]}`},
		{"telemetry verbosity out of range", `{"id": "x", "telemetryEndpoints": [["wss://a", 300]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain-spec.json")
	require.NoError(t, os.WriteFile(path, []byte(gemini), 0644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Subspace Gemini 1", spec.Name)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestStaticReturnsCopies(t *testing.T) {
	s := &Static{ChainID: "dev", Boot: []string{"/ip4/127.0.0.1/tcp/30333"}}
	nodes := s.BootNodes()
	nodes[0] = "mutated"
	assert.Equal(t, "/ip4/127.0.0.1/tcp/30333", s.BootNodes()[0])
}

func TestDisplayNameAndProperties(t *testing.T) {
	spec, err := Parse([]byte(gemini))
	require.NoError(t, err)
	assert.Equal(t, "Subspace Gemini 1", DisplayName(spec))

	props := Properties(spec)
	assert.Equal(t, "tSSC", props["tokenSymbol"])
	props["tokenSymbol"] = "changed"
	v, _ := spec.Property("tokenSymbol")
	assert.Equal(t, "tSSC", v)

	static := &Static{ChainID: "dev"}
	assert.Equal(t, "dev", DisplayName(static))
	assert.Empty(t, Properties(static))
}

func TestRuntimeCode(t *testing.T) {
	spec, err := Parse([]byte(gemini))
	require.NoError(t, err)
	code, err := RuntimeCode(spec)
	require.NoError(t, err)
	assert.Nil(t, code)

	spec, err = Parse([]byte(`{"id":"dev","genesis":{"raw":{"top":{"0x3a636f6465":"0x0061736d01000000"}}}}`))
	require.NoError(t, err)
	code, err = RuntimeCode(spec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, code)

	spec, err = Parse([]byte(`{"id":"dev","genesis":{"raw":{"top":{"0x3a636f6465":"0xzz"}}}}`))
	require.NoError(t, err)
	_, err = RuntimeCode(spec)
	assert.Error(t, err)
}
