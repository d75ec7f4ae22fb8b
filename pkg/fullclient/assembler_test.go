package fullclient

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/nodename"
	"github.com/DeBrosOfficial/fullnode/pkg/tasks"
)

type fixedName string

func (f fixedName) Generate() (string, error) { return string(f), nil }

type failingNames struct{}

func (failingNames) Generate() (string, error) { return "", nodename.ErrNameGenerationExhausted }

const bootNode = "/dns/bootstrap-0.gemini-2a.subspace.network/tcp/30333/p2p/12D3KooWHbcFcrGPXKUrHcxvd8MXEeUzRYyvY8fQcpEBxncSUwhj"

func geminiSpec() *chainspec.Static {
	return &chainspec.Static{
		ChainID: "subspace_gemini_2a",
		Boot:    []string{bootNode},
		Telemetry: []chainspec.TelemetryEndpoint{
			{URL: "wss://telemetry.subspace.network/submit/", Verbosity: 1},
		},
		Properties: map[string]any{"ss58Format": float64(2254)},
	}
}

func testAssembler(env map[string]string) *Assembler {
	return &Assembler{
		ImplName: "Subspace-desktop",
		Version:  "1.2.3",
		Names:    fixedName("brave-otter-0042"),
		Getenv:   func(k string) string { return env[k] },
	}
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name, version, want string
	}{
		{"Subspace-desktop", "1.2.3", "Subspace-desktop/v1.2.3"},
		{"Subspace-desktop", "0.6.14-abcdef0", "Subspace-desktop/v0.6.14-abcdef0"},
		{"x", "", "x/v"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClientID(tt.name, tt.version))
	}
}

func TestCreateConfigurationIsDeterministic(t *testing.T) {
	base := config.BasePath(t.TempDir())
	spec := geminiSpec()
	exec := tasks.NewGroup(context.Background(), nil)
	a := testAssembler(nil)

	first, err := a.CreateConfiguration(base, spec, exec)
	require.NoError(t, err)
	second, err := a.CreateConfiguration(base, spec, exec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreateConfigurationPolicy(t *testing.T) {
	base := config.BasePath(t.TempDir())
	spec := geminiSpec()
	exec := tasks.NewGroup(context.Background(), nil)

	cfg, err := testAssembler(nil).CreateConfiguration(base, spec, exec)
	require.NoError(t, err)

	configDir := filepath.Join(base.Path(), "subspace_gemini_2a")

	// Identity
	assert.Equal(t, "Subspace-desktop", cfg.ImplName)
	assert.Equal(t, "1.2.3", cfg.ImplVersion)
	assert.Equal(t, "brave-otter-0042", cfg.Network.NodeName)
	assert.Equal(t, "Subspace-desktop/v1.2.3", cfg.Network.ClientID)
	assert.Equal(t, config.RoleAuthority, cfg.Role)
	assert.Same(t, exec, cfg.Tasks)
	assert.Equal(t, base, cfg.BasePath)

	// Network
	assert.Equal(t, []string{"/ip6/::/tcp/30333", "/ip4/0.0.0.0/tcp/30333"}, cfg.Network.ListenAddresses)
	assert.Equal(t, []string{bootNode}, cfg.Network.BootNodes)
	assert.Equal(t, config.NodeKeyEd25519, cfg.Network.NodeKey.Type)
	assert.Equal(t, filepath.Join(configDir, "network", "secret_ed25519"), cfg.Network.NodeKey.File)
	assert.Equal(t, filepath.Join(configDir, "network"), cfg.Network.NetConfigPath)
	assert.Equal(t, uint32(125), cfg.Network.DefaultPeersSet.InPeers)
	assert.Equal(t, uint32(75), cfg.Network.DefaultPeersSet.OutPeers)

	// Keystore and storage
	assert.Equal(t, config.KeystoreInMemory, cfg.Keystore.Kind)
	assert.Empty(t, cfg.KeystoreRemote)
	assert.Equal(t, config.DatabaseSource{
		Kind:       config.DatabaseAuto,
		LegacyPath: filepath.Join(configDir, "db", "full"),
		ParityPath: filepath.Join(configDir, "paritydb", "full"),
		CacheSize:  1024,
	}, cfg.Database)
	assert.Equal(t, 67_108_864, cfg.StateCacheSize)
	assert.Nil(t, cfg.StateCacheChildRatio)
	assert.Equal(t, config.PruningMode{Kind: config.PruningArchiveAll}, cfg.StatePruning)
	assert.True(t, cfg.KeepBlocks.All)
	assert.Equal(t, config.TransactionStorageBlockBody, cfg.TransactionStorage)

	// Execution
	assert.Equal(t, config.WasmCompiled, cfg.Execution.WasmMethod)
	assert.Empty(t, cfg.Execution.WasmRuntimeOverrides)
	assert.Equal(t, 8, cfg.Execution.MaxRuntimeInstances)
	assert.Equal(t, 2, cfg.Execution.RuntimeCacheSize)
	assert.Zero(t, cfg.Execution.DefaultHeapPages)

	// RPC
	assert.Equal(t, config.RPCConfig{WS: "127.0.0.1:9944", Methods: config.RPCMethodsUnsafe}, cfg.RPC)
	assert.Empty(t, cfg.PrometheusListen)

	// The rest
	assert.Equal(t, spec.Telemetry, cfg.TelemetryEndpoints)
	assert.False(t, cfg.OffchainWorker.Enabled)
	assert.False(t, cfg.ForceAuthoring)
	assert.False(t, cfg.DisableGrandpa)
	assert.Empty(t, cfg.DevKeySeed)
	assert.Empty(t, cfg.TracingTargets)
	assert.Equal(t, config.TracingReceiverLog, cfg.TracingReceiver)
	assert.True(t, cfg.AnnounceBlock)

	assert.Empty(t, cfg.Validate())
}

func TestCreateConfigurationInvariantsHoldForAnyInput(t *testing.T) {
	specs := []*chainspec.Static{
		{ChainID: "dev"},
		{ChainID: "local_testnet", Boot: []string{bootNode, bootNode}},
		geminiSpec(),
	}
	bases := []config.BasePath{"/var/lib/fullnode", "relative/path", config.BasePath(t.TempDir())}

	for _, spec := range specs {
		for _, base := range bases {
			for _, forced := range []string{"", "1"} {
				cfg, err := testAssembler(map[string]string{ForceAuthoringEnv: forced}).CreateConfiguration(base, spec, nil)
				require.NoError(t, err)

				assert.Empty(t, cfg.RPC.HTTP)
				assert.True(t, config.IsLoopbackAddr(cfg.RPC.WS), "ws bound to %s", cfg.RPC.WS)

				strategy, uniform := cfg.Execution.Strategies.Uniform()
				assert.True(t, uniform)
				assert.Equal(t, config.AlwaysWasm, strategy)

				assert.Equal(t, config.PruningArchiveAll, cfg.StatePruning.Kind)
				assert.Equal(t, DatabaseCacheSize, cfg.Database.CacheSize)
				assert.Less(t, len([]rune(cfg.Network.NodeName)), nodename.MaxLength)
			}
		}
	}
}

func TestCreateConfigurationForceAuthoring(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"", false},
		{"0", false},
		{"true", false},
		{" 1", false},
	}

	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			cfg, err := testAssembler(map[string]string{ForceAuthoringEnv: tt.value}).
				CreateConfiguration(config.BasePath(t.TempDir()), geminiSpec(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ForceAuthoring)
		})
	}
}

func TestCreateConfigurationReadsProcessEnvironment(t *testing.T) {
	t.Setenv(ForceAuthoringEnv, "1")

	a := &Assembler{Names: fixedName("calm-heron-0001")}
	cfg, err := a.CreateConfiguration(config.BasePath(t.TempDir()), geminiSpec(), nil)
	require.NoError(t, err)
	assert.True(t, cfg.ForceAuthoring)
	assert.Equal(t, ClientID(cfg.ImplName, cfg.ImplVersion), cfg.Network.ClientID)
}

func TestCreateConfigurationWithRandomName(t *testing.T) {
	cfg, err := CreateConfiguration(config.BasePath(t.TempDir()), geminiSpec(), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z]+-[a-z]+-\d{4}$`, cfg.Network.NodeName)
}

func TestCreateConfigurationErrors(t *testing.T) {
	a := testAssembler(nil)

	_, err := a.CreateConfiguration("x", nil, nil)
	require.Error(t, err)

	_, err = a.CreateConfiguration("x", &chainspec.Static{}, nil)
	require.Error(t, err)

	a.Names = failingNames{}
	_, err = a.CreateConfiguration("x", geminiSpec(), nil)
	require.True(t, errors.Is(err, nodename.ErrNameGenerationExhausted))
}

func TestCreateConfigurationCopiesChainSpecSlices(t *testing.T) {
	spec := geminiSpec()
	cfg, err := testAssembler(nil).CreateConfiguration(config.BasePath(t.TempDir()), spec, nil)
	require.NoError(t, err)

	cfg.Network.BootNodes[0] = "mutated"
	cfg.TelemetryEndpoints[0].URL = "mutated"

	assert.Equal(t, bootNode, spec.Boot[0])
	assert.NotEqual(t, "mutated", spec.Telemetry[0].URL)
}
