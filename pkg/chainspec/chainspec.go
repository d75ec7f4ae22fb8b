package chainspec

// ChainSpec is the read-only view of a chain specification that node
// configuration needs. Implementations must be safe for concurrent reads.
type ChainSpec interface {
	// ID returns the chain identifier, used as the per-chain directory name.
	ID() string
	// BootNodes returns the bootstrap peers as multiaddr strings ending in /p2p/<peer id>.
	BootNodes() []string
	// TelemetryEndpoints returns the telemetry servers nodes should report to.
	TelemetryEndpoints() []TelemetryEndpoint
	// Property looks up a generic chain property such as "ss58Format".
	Property(key string) (any, bool)
}

// TelemetryEndpoint is a telemetry server URL with the maximum verbosity sent to it.
type TelemetryEndpoint struct {
	URL       string `yaml:"url"`
	Verbosity uint8  `yaml:"verbosity"`
}

// Static is an in-memory ChainSpec.
type Static struct {
	ChainID    string
	Name       string
	Boot       []string
	Telemetry  []TelemetryEndpoint
	Properties map[string]any
	Code       []byte
}

var _ ChainSpec = (*Static)(nil)

func (s *Static) ID() string { return s.ChainID }

func (s *Static) BootNodes() []string {
	out := make([]string, len(s.Boot))
	copy(out, s.Boot)
	return out
}

func (s *Static) TelemetryEndpoints() []TelemetryEndpoint {
	out := make([]TelemetryEndpoint, len(s.Telemetry))
	copy(out, s.Telemetry)
	return out
}

func (s *Static) Property(key string) (any, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// Named is implemented by specs that carry a human-readable chain name.
type Named interface {
	ChainName() string
}

// PropertySet is implemented by specs that can enumerate their properties.
type PropertySet interface {
	PropertyMap() map[string]any
}

// DisplayName returns the chain name, or the id when the spec has none.
func DisplayName(spec ChainSpec) string {
	if n, ok := spec.(Named); ok && n.ChainName() != "" {
		return n.ChainName()
	}
	return spec.ID()
}

// Properties returns a copy of all chain properties, or an empty map.
func Properties(spec ChainSpec) map[string]any {
	out := make(map[string]any)
	if ps, ok := spec.(PropertySet); ok {
		for k, v := range ps.PropertyMap() {
			out[k] = v
		}
	}
	return out
}

func (s *Static) ChainName() string { return s.Name }

func (s *Static) PropertyMap() map[string]any { return s.Properties }

// RuntimeCodeKey is the storage key of the runtime, ":code" in hex.
const RuntimeCodeKey = "0x3a636f6465"

// CodeSource is implemented by specs whose genesis carries the runtime.
type CodeSource interface {
	GenesisCode() ([]byte, error)
}

// RuntimeCode returns the genesis runtime, or nil when the spec has none.
func RuntimeCode(spec ChainSpec) ([]byte, error) {
	if cs, ok := spec.(CodeSource); ok {
		return cs.GenesisCode()
	}
	return nil, nil
}

func (s *Static) GenesisCode() ([]byte, error) { return s.Code, nil }
