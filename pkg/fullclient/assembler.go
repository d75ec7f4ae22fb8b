// Package fullclient assembles the node configuration and starts the node
// service with it.
package fullclient

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/database"
	"github.com/DeBrosOfficial/fullnode/pkg/nodename"
	"github.com/DeBrosOfficial/fullnode/pkg/tasks"
	"github.com/DeBrosOfficial/fullnode/pkg/version"
)

// NameGenerator produces node names.
type NameGenerator interface {
	Generate() (string, error)
}

// Assembler builds configurations. The zero value uses the build version,
// random node names and the process environment.
type Assembler struct {
	ImplName string
	Version  string
	Names    NameGenerator
	Getenv   func(key string) string
}

// NewAssembler returns an Assembler for this build.
func NewAssembler() *Assembler {
	return &Assembler{
		ImplName: version.ImplName,
		Version:  version.Full(),
		Names:    nodename.New(),
		Getenv:   os.Getenv,
	}
}

// ClientID formats the client identifier peers see.
func ClientID(implName, implVersion string) string {
	return implName + "/v" + implVersion
}

// CreateConfiguration builds the configuration with a new Assembler.
func CreateConfiguration(basePath config.BasePath, spec chainspec.ChainSpec, exec tasks.Executor) (*config.Configuration, error) {
	return NewAssembler().CreateConfiguration(basePath, spec, exec)
}

// CreateConfiguration builds the node configuration for spec rooted at
// basePath. It touches neither the filesystem nor the network.
func (a *Assembler) CreateConfiguration(basePath config.BasePath, spec chainspec.ChainSpec, exec tasks.Executor) (*config.Configuration, error) {
	if spec == nil {
		return nil, fmt.Errorf("chain spec is required")
	}
	if spec.ID() == "" {
		return nil, fmt.Errorf("chain spec has no id")
	}

	implName := a.ImplName
	if implName == "" {
		implName = version.ImplName
	}
	implVersion := a.Version
	if implVersion == "" {
		implVersion = version.Full()
	}
	names := a.Names
	if names == nil {
		names = nodename.New()
	}
	getenv := a.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	nodeName, err := names.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate node name: %w", err)
	}

	configDir := basePath.ConfigDir(spec.ID())
	netConfigDir := filepath.Join(configDir, NetworkConfigDir)
	role := NodeRole

	network := config.NetworkConfiguration{
		NodeName: nodeName,
		ClientID: ClientID(implName, implVersion),
		NodeKey: config.NodeKeyConfig{
			Type: config.NodeKeyEd25519,
			File: filepath.Join(netConfigDir, NodeKeyFile),
		},
		NetConfigPath:   netConfigDir,
		ListenAddresses: ListenAddresses(),
		BootNodes:       spec.BootNodes(),
		DefaultPeersSet: config.SetConfig{
			InPeers:  FullPeerSlots + LightPeerSlots,
			OutPeers: OutPeerSlots,
		},
	}

	return &config.Configuration{
		ImplName:        implName,
		ImplVersion:     implVersion,
		Role:            role,
		Tasks:           exec,
		ChainSpec:       spec,
		BasePath:        basePath,
		TransactionPool: config.DefaultTransactionPool(),
		Network:         network,
		Keystore:        config.KeystoreConfig{Kind: config.KeystoreInMemory},
		Database:        database.Config(configDir, DatabaseCacheSize, role),

		StateCacheSize: StateCacheSize,

		// Full history until constrained pruning is supported
		StatePruning:       config.PruningMode{Kind: config.PruningArchiveAll},
		KeepBlocks:         config.KeepBlocks{All: true},
		TransactionStorage: config.TransactionStorageBlockBody,

		Execution: config.ExecutionConfig{
			WasmMethod:          config.WasmCompiled,
			Strategies:          config.UniformStrategies(ExecutionStrategy),
			MaxRuntimeInstances: MaxRuntimeInstances,
			RuntimeCacheSize:    RuntimeCacheSize,
		},
		RPC: config.RPCConfig{
			WS:      RPCAddress,
			Methods: config.RPCMethodsUnsafe,
		},

		TelemetryEndpoints: spec.TelemetryEndpoints(),
		OffchainWorker:     config.OffchainWorkerConfig{},

		ForceAuthoring: getenv(ForceAuthoringEnv) == ForceAuthoringOn,
		DisableGrandpa: false,

		TracingReceiver: config.TracingReceiverLog,
		AnnounceBlock:   true,
		Informant:       config.InformantConfig{EnableColor: true},
	}, nil
}
