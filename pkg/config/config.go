package config

import (
	"github.com/multiformats/go-multiaddr"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/tasks"
)

// Configuration is the complete runtime configuration handed to the node
// service. It is built once per process and not mutated afterwards.
type Configuration struct {
	ImplName    string `yaml:"impl_name"`
	ImplVersion string `yaml:"impl_version"`
	Role        Role   `yaml:"role"`

	// Tasks is the execution context background work is spawned on.
	Tasks tasks.Executor `yaml:"-"`
	// ChainSpec is the chain the node runs.
	ChainSpec chainspec.ChainSpec `yaml:"-"`
	BasePath  BasePath            `yaml:"base_path"`

	TransactionPool TransactionPoolConfig `yaml:"transaction_pool"`
	Network         NetworkConfiguration  `yaml:"network"`
	Keystore        KeystoreConfig        `yaml:"keystore"`
	KeystoreRemote  string                `yaml:"keystore_remote,omitempty"` // Empty for none
	Database        DatabaseSource        `yaml:"database"`

	StateCacheSize       int  `yaml:"state_cache_size"`                  // In bytes
	StateCacheChildRatio *int `yaml:"state_cache_child_ratio,omitempty"` // Nil for engine default

	StatePruning       PruningMode            `yaml:"state_pruning"`
	KeepBlocks         KeepBlocks             `yaml:"keep_blocks"`
	TransactionStorage TransactionStorageMode `yaml:"transaction_storage"`

	Execution ExecutionConfig `yaml:"execution"`
	RPC       RPCConfig       `yaml:"rpc"`

	PrometheusListen   string                        `yaml:"prometheus_listen,omitempty"` // Empty for none
	TelemetryEndpoints []chainspec.TelemetryEndpoint `yaml:"telemetry_endpoints"`
	OffchainWorker     OffchainWorkerConfig          `yaml:"offchain_worker"`

	ForceAuthoring bool   `yaml:"force_authoring"`
	DisableGrandpa bool   `yaml:"disable_grandpa"`
	DevKeySeed     string `yaml:"dev_key_seed,omitempty"`

	TracingTargets  string          `yaml:"tracing_targets,omitempty"` // Empty for none
	TracingReceiver TracingReceiver `yaml:"tracing_receiver"`

	AnnounceBlock bool            `yaml:"announce_block"`
	Informant     InformantConfig `yaml:"informant"`
}

// NetworkConfiguration contains peer-to-peer networking settings
type NetworkConfiguration struct {
	NodeName        string        `yaml:"node_name"`
	ClientID        string        `yaml:"client_id"`
	NodeKey         NodeKeyConfig `yaml:"node_key"`
	NetConfigPath   string        `yaml:"net_config_path"`  // Directory for network state
	ListenAddresses []string      `yaml:"listen_addresses"` // LibP2P listen addresses
	BootNodes       []string      `yaml:"boot_nodes"`       // Multiaddrs ending in /p2p/<peer id>
	DefaultPeersSet SetConfig     `yaml:"default_peers_set"`
}

// NodeKeyConfig locates the network identity key
type NodeKeyConfig struct {
	Type NodeKeyType `yaml:"type"`
	File string      `yaml:"file"` // Generated on first start if missing
}

// SetConfig holds the peer slot quotas of a peer set
type SetConfig struct {
	InPeers       uint32   `yaml:"in_peers"`
	OutPeers      uint32   `yaml:"out_peers"`
	ReservedNodes []string `yaml:"reserved_nodes,omitempty"`
	ReservedOnly  bool     `yaml:"reserved_only"`
}

// DatabaseSource tells the storage engine where its data may live. With
// DatabaseAuto the engine picks the layout that already exists.
type DatabaseSource struct {
	Kind       DatabaseKind `yaml:"kind"`
	LegacyPath string       `yaml:"legacy_path"` // <dir>/db/<role>
	ParityPath string       `yaml:"parity_path"` // <dir>/paritydb/<role>
	CacheSize  int          `yaml:"cache_size"`  // In MiB
}

// ExecutionConfig contains runtime execution policy
type ExecutionConfig struct {
	WasmMethod           WasmExecutionMethod `yaml:"wasm_method"`
	WasmRuntimeOverrides string              `yaml:"wasm_runtime_overrides,omitempty"` // Empty for none
	Strategies           ExecutionStrategies `yaml:"strategies"`
	MaxRuntimeInstances  int                 `yaml:"max_runtime_instances"`
	RuntimeCacheSize     int                 `yaml:"runtime_cache_size"`
	DefaultHeapPages     uint64              `yaml:"default_heap_pages,omitempty"` // 0 for runtime default
}

// RPCConfig contains RPC listener settings. Empty addresses disable a listener.
type RPCConfig struct {
	HTTP             string     `yaml:"http,omitempty"`
	WS               string     `yaml:"ws,omitempty"`
	IPC              string     `yaml:"ipc,omitempty"`
	Methods          RPCMethods `yaml:"methods"`
	WSMaxConnections int        `yaml:"ws_max_connections,omitempty"` // 0 for unlimited
	Cors             []string   `yaml:"cors,omitempty"`               // Nil allows every origin
	MaxPayload       int        `yaml:"max_payload,omitempty"`        // In MiB, 0 for default
	WSMaxOutBuffer   int        `yaml:"ws_max_out_buffer,omitempty"`  // In MiB, 0 for default
}

// TransactionPoolConfig bounds the transaction pool
type TransactionPoolConfig struct {
	Ready                   PoolLimit `yaml:"ready"`
	Future                  PoolLimit `yaml:"future"`
	RejectFutureTransaction bool      `yaml:"reject_future_transactions"`
}

// PoolLimit bounds one sub-pool
type PoolLimit struct {
	Count      int `yaml:"count"`
	TotalBytes int `yaml:"total_bytes"`
}

// OffchainWorkerConfig contains offchain worker settings
type OffchainWorkerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IndexingEnabled bool `yaml:"indexing_enabled"`
}

// InformantConfig controls the periodic status line
type InformantConfig struct {
	EnableColor bool   `yaml:"enable_color"`
	Prefix      string `yaml:"prefix,omitempty"`
}

// DefaultTransactionPool returns the default pool limits.
func DefaultTransactionPool() TransactionPoolConfig {
	return TransactionPoolConfig{
		Ready:  PoolLimit{Count: 8192, TotalBytes: 20 * 1024 * 1024},
		Future: PoolLimit{Count: 512, TotalBytes: 1 * 1024 * 1024},
	}
}

// ParseListenAddresses converts the listen addresses to multiaddr objects
func (n *NetworkConfiguration) ParseListenAddresses() ([]multiaddr.Multiaddr, error) {
	return parseMultiaddrs(n.ListenAddresses)
}

// ParseBootNodes converts the boot nodes to multiaddr objects
func (n *NetworkConfiguration) ParseBootNodes() ([]multiaddr.Multiaddr, error) {
	return parseMultiaddrs(n.BootNodes)
}

func parseMultiaddrs(in []string) ([]multiaddr.Multiaddr, error) {
	addrs := make([]multiaddr.Multiaddr, 0, len(in))
	for _, addr := range in {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, ma)
	}
	return addrs, nil
}
