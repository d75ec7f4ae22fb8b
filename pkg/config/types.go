package config

// Role is the part a node plays in the network.
type Role string

const (
	RoleLight     Role = "light"
	RoleFull      Role = "full"
	RoleAuthority Role = "authority"
)

// IsAuthority reports whether the node may author blocks.
func (r Role) IsAuthority() bool { return r == RoleAuthority }

// KeystoreKind selects where signing keys live.
type KeystoreKind string

const (
	KeystoreInMemory KeystoreKind = "in_memory"
	KeystorePath     KeystoreKind = "path"
)

// KeystoreConfig describes the local keystore.
type KeystoreConfig struct {
	Kind KeystoreKind `yaml:"kind"`
	Path string       `yaml:"path,omitempty"` // Only for KeystorePath
}

// PruningKind selects how much historical state is kept.
type PruningKind string

const (
	PruningArchiveAll       PruningKind = "archive_all"
	PruningArchiveCanonical PruningKind = "archive_canonical"
	PruningConstrained      PruningKind = "constrained"
)

// PruningMode is the state pruning policy.
type PruningMode struct {
	Kind      PruningKind `yaml:"kind"`
	MaxBlocks uint32      `yaml:"max_blocks,omitempty"` // Only for PruningConstrained
}

// KeepBlocks controls how many finalized block bodies are retained.
type KeepBlocks struct {
	All   bool   `yaml:"all"`
	Count uint32 `yaml:"count,omitempty"`
}

// TransactionStorageMode selects how transactions are stored with blocks.
type TransactionStorageMode string

const (
	TransactionStorageBlockBody    TransactionStorageMode = "block_body"
	TransactionStorageStorageChain TransactionStorageMode = "storage_chain"
)

// WasmExecutionMethod selects the virtual machine backend.
type WasmExecutionMethod string

const (
	WasmInterpreted WasmExecutionMethod = "interpreted"
	WasmCompiled    WasmExecutionMethod = "compiled"
)

// ExecutionStrategy chooses between native code and the virtual machine.
type ExecutionStrategy string

const (
	// NativeWhenPossible uses native code if the versions match, otherwise the VM.
	NativeWhenPossible ExecutionStrategy = "native_when_possible"
	// AlwaysWasm never runs native code.
	AlwaysWasm ExecutionStrategy = "always_wasm"
	// Both runs native and VM and reports divergence, returning the VM result.
	Both ExecutionStrategy = "both"
	// NativeElseWasm runs native code and falls back to the VM only on failure.
	NativeElseWasm ExecutionStrategy = "native_else_wasm"
)

// ExecutionContext names the situation a runtime call is made in.
type ExecutionContext string

const (
	ContextSyncing           ExecutionContext = "syncing"
	ContextImporting         ExecutionContext = "importing"
	ContextBlockConstruction ExecutionContext = "block_construction"
	ContextOffchainWorker    ExecutionContext = "offchain_worker"
	ContextOther             ExecutionContext = "other"
)

// ExecutionStrategies holds one strategy per execution context.
type ExecutionStrategies struct {
	Syncing           ExecutionStrategy `yaml:"syncing"`
	Importing         ExecutionStrategy `yaml:"importing"`
	BlockConstruction ExecutionStrategy `yaml:"block_construction"`
	OffchainWorker    ExecutionStrategy `yaml:"offchain_worker"`
	Other             ExecutionStrategy `yaml:"other"`
}

// UniformStrategies sets every context to s.
func UniformStrategies(s ExecutionStrategy) ExecutionStrategies {
	return ExecutionStrategies{
		Syncing:           s,
		Importing:         s,
		BlockConstruction: s,
		OffchainWorker:    s,
		Other:             s,
	}
}

// ForContext returns the strategy for ctx. Unknown contexts use Other.
func (e ExecutionStrategies) ForContext(ctx ExecutionContext) ExecutionStrategy {
	switch ctx {
	case ContextSyncing:
		return e.Syncing
	case ContextImporting:
		return e.Importing
	case ContextBlockConstruction:
		return e.BlockConstruction
	case ContextOffchainWorker:
		return e.OffchainWorker
	default:
		return e.Other
	}
}

// Uniform returns the shared strategy when all five slots agree.
func (e ExecutionStrategies) Uniform() (ExecutionStrategy, bool) {
	s := e.Syncing
	if e.Importing != s || e.BlockConstruction != s || e.OffchainWorker != s || e.Other != s {
		return "", false
	}
	return s, true
}

// RPCMethods selects which RPC methods are exposed.
type RPCMethods string

const (
	// RPCMethodsAuto exposes unsafe methods only on loopback listeners.
	RPCMethodsAuto RPCMethods = "auto"
	// RPCMethodsSafe exposes only safe methods.
	RPCMethodsSafe RPCMethods = "safe"
	// RPCMethodsUnsafe exposes every method, including privileged ones.
	RPCMethodsUnsafe RPCMethods = "unsafe"
)

// TracingReceiver selects where runtime traces go.
type TracingReceiver string

const (
	TracingReceiverLog TracingReceiver = "log"
)

// DatabaseKind tells the storage engine how to interpret a DatabaseSource.
type DatabaseKind string

const (
	// DatabaseAuto lets the engine pick whichever layout already exists,
	// creating the default one when neither does.
	DatabaseAuto DatabaseKind = "auto"
)

// NodeKeyType is the kind of network identity key.
type NodeKeyType string

const (
	NodeKeyEd25519 NodeKeyType = "ed25519"
)
