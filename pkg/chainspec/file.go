package chainspec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// File is a chain specification loaded from a JSON chain-spec document.
// Only the fields the node needs are decoded; of the genesis only the raw
// storage map is read.
type File struct {
	Name       string         `json:"name"`
	ChainID    string         `json:"id"`
	ChainType  string         `json:"chainType"`
	Boot       []string       `json:"bootNodes"`
	Telemetry  []telemetryRaw `json:"telemetryEndpoints"`
	ProtocolID string         `json:"protocolId"`
	Properties map[string]any `json:"properties"`
	Genesis    genesis        `json:"genesis"`
}

type genesis struct {
	Raw *struct {
		Top map[string]string `json:"top"`
	} `json:"raw,omitempty"`
}

var _ ChainSpec = (*File)(nil)

// telemetryRaw decodes the ["wss://url", verbosity] tuple form.
type telemetryRaw struct {
	URL       string
	Verbosity uint8
}

func (t *telemetryRaw) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("telemetry endpoint must be [url, verbosity]: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("telemetry endpoint must have 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &t.URL); err != nil {
		return fmt.Errorf("telemetry url: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &t.Verbosity); err != nil {
		return fmt.Errorf("telemetry verbosity: %w", err)
	}
	return nil
}

// Load reads and decodes a chain specification file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain spec: %w", err)
	}
	return Parse(data)
}

// Parse decodes a chain specification document. Numeric properties are kept
// as json.Number so large or negative values are not silently rounded.
func Parse(data []byte) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid chain spec: %w", err)
	}
	if f.ChainID == "" {
		return nil, fmt.Errorf("invalid chain spec: missing id")
	}
	return &f, nil
}

func (f *File) ID() string { return f.ChainID }

func (f *File) BootNodes() []string {
	out := make([]string, len(f.Boot))
	copy(out, f.Boot)
	return out
}

func (f *File) TelemetryEndpoints() []TelemetryEndpoint {
	out := make([]TelemetryEndpoint, 0, len(f.Telemetry))
	for _, t := range f.Telemetry {
		out = append(out, TelemetryEndpoint{URL: t.URL, Verbosity: t.Verbosity})
	}
	return out
}

func (f *File) Property(key string) (any, bool) {
	v, ok := f.Properties[key]
	return v, ok
}

func (f *File) ChainName() string { return f.Name }

func (f *File) PropertyMap() map[string]any { return f.Properties }

// GenesisCode returns the runtime stored under :code in the raw genesis.
func (f *File) GenesisCode() ([]byte, error) {
	if f.Genesis.Raw == nil {
		return nil, nil
	}
	v, ok := f.Genesis.Raw.Top[RuntimeCodeKey]
	if !ok {
		return nil, nil
	}
	code, err := hex.DecodeString(strings.TrimPrefix(v, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid runtime code in genesis: %w", err)
	}
	return code, nil
}
