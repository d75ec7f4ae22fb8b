package config

import (
	"strings"
	"testing"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
)

// validConfiguration returns a valid configuration rooted at t.TempDir()
func validConfiguration(t *testing.T) *Configuration {
	t.Helper()
	base := BasePath(t.TempDir())
	return &Configuration{
		ImplName:    "Subspace-desktop",
		ImplVersion: "0.1.0",
		Role:        RoleAuthority,
		BasePath:    base,
		Network: NetworkConfiguration{
			NodeName: "brave-otter-0042",
			ClientID: "Subspace-desktop/v0.1.0",
			NodeKey: NodeKeyConfig{
				Type: NodeKeyEd25519,
				File: base.ConfigDir("gemini") + "/network/secret_ed25519",
			},
			ListenAddresses: []string{"/ip6/::/tcp/30333", "/ip4/0.0.0.0/tcp/30333"},
			DefaultPeersSet: SetConfig{InPeers: 125, OutPeers: 75},
		},
		Keystore: KeystoreConfig{Kind: KeystoreInMemory},
		Database: DatabaseSource{
			Kind:       DatabaseAuto,
			LegacyPath: base.ConfigDir("gemini") + "/db/full",
			ParityPath: base.ConfigDir("gemini") + "/paritydb/full",
			CacheSize:  1024,
		},
		StateCacheSize:     67_108_864,
		StatePruning:       PruningMode{Kind: PruningArchiveAll},
		KeepBlocks:         KeepBlocks{All: true},
		TransactionStorage: TransactionStorageBlockBody,
		Execution: ExecutionConfig{
			WasmMethod:          WasmCompiled,
			Strategies:          UniformStrategies(AlwaysWasm),
			MaxRuntimeInstances: 8,
			RuntimeCacheSize:    2,
		},
		RPC: RPCConfig{
			WS:      "127.0.0.1:9944",
			Methods: RPCMethodsUnsafe,
		},
		TracingReceiver: TracingReceiverLog,
		AnnounceBlock:   true,
	}
}

func TestValidateCompleteConfiguration(t *testing.T) {
	cfg := validConfiguration(t)
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValidateListenAddresses(t *testing.T) {
	tests := []struct {
		name        string
		addresses   []string
		shouldError bool
	}{
		{"valid single", []string{"/ip4/0.0.0.0/tcp/30333"}, false},
		{"valid ipv6", []string{"/ip6/::/tcp/30333"}, false},
		{"invalid port", []string{"/ip4/0.0.0.0/tcp/99999"}, true},
		{"invalid port zero", []string{"/ip4/0.0.0.0/tcp/0"}, true},
		{"invalid multiaddr", []string{"invalid"}, true},
		{"udp only", []string{"/ip4/0.0.0.0/udp/30333"}, true},
		{"empty", []string{}, true},
		{"duplicate", []string{"/ip4/0.0.0.0/tcp/30333", "/ip4/0.0.0.0/tcp/30333"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			cfg.Network.ListenAddresses = tt.addresses
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateBootNodes(t *testing.T) {
	validPeer := "/ip4/127.0.0.1/tcp/30333/p2p/12D3KooWHbcFcrGPXKUrHcxvd8MXEeUzRYyvY8fQcpEBxncSUwhj"
	dnsPeer := "/dns/bootstrap-0.gemini.subspace.network/tcp/30333/p2p/12D3KooWHbcFcrGPXKUrHcxvd8MXEeUzRYyvY8fQcpEBxncSUwhj"

	tests := []struct {
		name        string
		nodes       []string
		shouldError bool
	}{
		{"none", nil, false},
		{"valid ip", []string{validPeer}, false},
		{"valid dns", []string{dnsPeer}, false},
		{"missing peer id", []string{"/ip4/127.0.0.1/tcp/30333"}, true},
		{"invalid multiaddr", []string{"bootnode:30333"}, true},
		{"duplicate", []string{validPeer, validPeer}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			cfg.Network.BootNodes = tt.nodes
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateNodeName(t *testing.T) {
	tests := []struct {
		name        string
		nodeName    string
		shouldError bool
	}{
		{"typical", "brave-otter-0042", false},
		{"63 chars", strings.Repeat("a", 63), false},
		{"64 chars", strings.Repeat("a", 64), true},
		{"63 multibyte runes", strings.Repeat("é", 63), false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			cfg.Network.NodeName = tt.nodeName
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateRPC(t *testing.T) {
	tests := []struct {
		name        string
		http        string
		ws          string
		methods     RPCMethods
		shouldError bool
	}{
		{"unsafe on loopback", "", "127.0.0.1:9944", RPCMethodsUnsafe, false},
		{"unsafe on localhost", "", "localhost:9944", RPCMethodsUnsafe, false},
		{"unsafe on ipv6 loopback", "", "[::1]:9944", RPCMethodsUnsafe, false},
		{"unsafe on all interfaces", "", "0.0.0.0:9944", RPCMethodsUnsafe, true},
		{"unsafe http on all interfaces", "0.0.0.0:9933", "127.0.0.1:9944", RPCMethodsUnsafe, true},
		{"safe on all interfaces", "", "0.0.0.0:9944", RPCMethodsSafe, false},
		{"disabled", "", "", RPCMethodsUnsafe, false},
		{"bad port", "", "127.0.0.1:0", RPCMethodsSafe, true},
		{"no port", "", "127.0.0.1", RPCMethodsSafe, true},
		{"unknown policy", "", "127.0.0.1:9944", RPCMethods("everything"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			cfg.RPC.HTTP = tt.http
			cfg.RPC.WS = tt.ws
			cfg.RPC.Methods = tt.methods
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateExecution(t *testing.T) {
	mixed := UniformStrategies(AlwaysWasm)
	mixed.OffchainWorker = NativeWhenPossible

	tests := []struct {
		name        string
		mutate      func(*ExecutionConfig)
		shouldError bool
	}{
		{"valid", func(*ExecutionConfig) {}, false},
		{"interpreted", func(e *ExecutionConfig) { e.WasmMethod = WasmInterpreted }, false},
		{"unknown method", func(e *ExecutionConfig) { e.WasmMethod = "jit" }, true},
		{"mixed strategies", func(e *ExecutionConfig) { e.Strategies = mixed }, true},
		{"unknown strategy", func(e *ExecutionConfig) { e.Strategies = UniformStrategies("sometimes") }, true},
		{"zero instances", func(e *ExecutionConfig) { e.MaxRuntimeInstances = 0 }, true},
		{"too many instances", func(e *ExecutionConfig) { e.MaxRuntimeInstances = 33 }, true},
		{"zero cache", func(e *ExecutionConfig) { e.RuntimeCacheSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			tt.mutate(&cfg.Execution)
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateStorage(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Configuration)
		shouldError bool
	}{
		{"zero db cache", func(c *Configuration) { c.Database.CacheSize = 0 }, true},
		{"missing legacy path", func(c *Configuration) { c.Database.LegacyPath = "" }, true},
		{"same paths", func(c *Configuration) { c.Database.ParityPath = c.Database.LegacyPath }, true},
		{"zero state cache", func(c *Configuration) { c.StateCacheSize = 0 }, true},
		{"constrained without bound", func(c *Configuration) { c.StatePruning = PruningMode{Kind: PruningConstrained} }, true},
		{"constrained with bound", func(c *Configuration) { c.StatePruning = PruningMode{Kind: PruningConstrained, MaxBlocks: 256} }, false},
		{"unknown transaction storage", func(c *Configuration) { c.TransactionStorage = "somewhere" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateTelemetryEndpoints(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		shouldError bool
	}{
		{"wss", "wss://telemetry.subspace.network/submit/", false},
		{"ws", "ws://127.0.0.1:8000/submit", false},
		{"http", "http://telemetry.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration(t)
			cfg.TelemetryEndpoints = append(cfg.TelemetryEndpoints, chainspec.TelemetryEndpoint{URL: tt.url, Verbosity: 0})
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Path: "rpc.ws", Message: "bad", Hint: "fix it"}
	if got := err.Error(); got != "rpc.ws: bad; fix it" {
		t.Errorf("unexpected message %q", got)
	}
	err.Hint = ""
	if got := err.Error(); got != "rpc.ws: bad" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:9944": true,
		"[::1]:9944":     true,
		"localhost:9944": true,
		"0.0.0.0:9944":   false,
		"10.0.0.1:9944":  false,
		"garbage":        false,
	} {
		if got := IsLoopbackAddr(addr); got != want {
			t.Errorf("IsLoopbackAddr(%q) = %v, want %v", addr, got, want)
		}
	}
}
