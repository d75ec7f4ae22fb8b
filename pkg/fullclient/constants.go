package fullclient

import (
	"fmt"

	"github.com/DeBrosOfficial/fullnode/pkg/config"
)

// Fixed node policy. None of these are user-configurable yet.
const (
	// ListenPort is the p2p port on both wildcard addresses.
	ListenPort = 30333

	// NetworkConfigDir is the sub directory of the chain's config dir holding network state.
	NetworkConfigDir = "network"
	// NodeKeyFile is the ed25519 secret key file inside NetworkConfigDir.
	NodeKeyFile = "secret_ed25519"

	// DatabaseCacheSize is in MiB.
	DatabaseCacheSize = 1024
	// StateCacheSize is in bytes.
	StateCacheSize = 67_108_864

	// Inbound slots are shared between full and light peers.
	FullPeerSlots  = 25
	LightPeerSlots = 100
	OutPeerSlots   = 75

	MaxRuntimeInstances = 8
	RuntimeCacheSize    = 2

	// RPCAddress is the only RPC listener. Privileged methods are exposed,
	// so it must stay on loopback.
	RPCAddress = "127.0.0.1:9944"

	// ForceAuthoringEnv enables forced authoring when set to ForceAuthoringOn.
	ForceAuthoringEnv = "FORCE_AUTHORING"
	ForceAuthoringOn  = "1"

	// ServiceName identifies node service failures.
	ServiceName = "node-service"
)

// NodeRole is the role every node built here runs with.
const NodeRole = config.RoleAuthority

// ExecutionStrategy is used for every execution context.
const ExecutionStrategy = config.AlwaysWasm

// ListenAddresses returns the p2p listen addresses.
func ListenAddresses() []string {
	return []string{
		fmt.Sprintf("/ip6/::/tcp/%d", ListenPort),
		fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", ListenPort),
	}
}
