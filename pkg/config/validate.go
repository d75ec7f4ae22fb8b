package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

const (
	// MaxNodeNameLength is the exclusive upper bound on node name characters.
	MaxNodeNameLength = 64
	// MaxRuntimeInstancesLimit caps the number of cached runtime instances.
	MaxRuntimeInstancesLimit = 32
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "network.boot_nodes[0]"
	Message string // e.g., "invalid multiaddr"
	Hint    string // e.g., "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire configuration.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Configuration) Validate() []error {
	var errs []error

	errs = append(errs, c.validateIdentity()...)
	errs = append(errs, c.validateNetwork()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateExecution()...)
	errs = append(errs, c.validateRPC()...)
	errs = append(errs, c.validateTelemetry()...)

	return errs
}

func (c *Configuration) validateIdentity() []error {
	var errs []error

	if c.ImplName == "" || strings.Contains(c.ImplName, "/") {
		errs = append(errs, ValidationError{
			Path:    "impl_name",
			Message: fmt.Sprintf("must be non-empty and must not contain '/'; got %q", c.ImplName),
		})
	}
	if c.ImplVersion == "" {
		errs = append(errs, ValidationError{
			Path:    "impl_version",
			Message: "must not be empty",
		})
	}

	switch c.Role {
	case RoleLight, RoleFull, RoleAuthority:
	default:
		errs = append(errs, ValidationError{
			Path:    "role",
			Message: fmt.Sprintf("unknown role %q", c.Role),
			Hint:    "expected light, full or authority",
		})
	}

	if c.BasePath == "" {
		errs = append(errs, ValidationError{
			Path:    "base_path",
			Message: "must not be empty",
		})
	} else if err := validateDataDir(c.BasePath.Path()); err != nil {
		errs = append(errs, ValidationError{
			Path:    "base_path",
			Message: err.Error(),
		})
	}

	return errs
}

func (c *Configuration) validateNetwork() []error {
	var errs []error
	nc := c.Network

	if nc.NodeName == "" {
		errs = append(errs, ValidationError{
			Path:    "network.node_name",
			Message: "must not be empty",
		})
	} else if n := utf8.RuneCountInString(nc.NodeName); n >= MaxNodeNameLength {
		errs = append(errs, ValidationError{
			Path:    "network.node_name",
			Message: fmt.Sprintf("must be shorter than %d characters; got %d", MaxNodeNameLength, n),
		})
	}

	if nc.ClientID == "" {
		errs = append(errs, ValidationError{
			Path:    "network.client_id",
			Message: "must not be empty",
		})
	}

	if nc.NodeKey.Type != NodeKeyEd25519 {
		errs = append(errs, ValidationError{
			Path:    "network.node_key.type",
			Message: fmt.Sprintf("unsupported key type %q", nc.NodeKey.Type),
			Hint:    "expected ed25519",
		})
	}
	if nc.NodeKey.File == "" {
		errs = append(errs, ValidationError{
			Path:    "network.node_key.file",
			Message: "must not be empty",
		})
	}

	// Validate listen_addresses
	if len(nc.ListenAddresses) == 0 {
		errs = append(errs, ValidationError{
			Path:    "network.listen_addresses",
			Message: "must not be empty",
		})
	}

	seen := make(map[string]bool)
	for i, addr := range nc.ListenAddresses {
		path := fmt.Sprintf("network.listen_addresses[%d]", i)

		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>",
			})
			continue
		}

		// Check for TCP and valid port
		netAddr, err := manet.ToNetAddr(ma)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("cannot convert multiaddr to network address: %v", err),
				Hint:    "ensure multiaddr contains /tcp/<port>",
			})
			continue
		}

		tcpAddr, ok := netAddr.(*net.TCPAddr)
		if !ok {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("not a TCP address: %s", netAddr.Network()),
				Hint:    "ensure multiaddr contains /tcp/<port>",
			})
			continue
		}
		if tcpAddr.Port < 1 || tcpAddr.Port > 65535 {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid TCP port %d", tcpAddr.Port),
				Hint:    "port must be between 1 and 65535",
			})
		}

		if seen[addr] {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "duplicate listen address",
			})
		}
		seen[addr] = true
	}

	// Boot nodes are optional, but each one must identify its peer
	seenPeers := make(map[string]bool)
	for i, node := range nc.BootNodes {
		path := fmt.Sprintf("network.boot_nodes[%d]", i)

		ma, err := multiaddr.NewMultiaddr(node)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}|dns/.../tcp/<port>/p2p/<peerID>",
			})
			continue
		}

		if _, err := ma.ValueForProtocol(multiaddr.P_P2P); err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "missing /p2p/<peerID> component",
				Hint:    "expected /ip{4,6}|dns/.../tcp/<port>/p2p/<peerID>",
			})
		}

		if seenPeers[node] {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "duplicate boot node",
			})
		}
		seenPeers[node] = true
	}

	if nc.DefaultPeersSet.InPeers == 0 && nc.DefaultPeersSet.OutPeers == 0 && !nc.DefaultPeersSet.ReservedOnly {
		errs = append(errs, ValidationError{
			Path:    "network.default_peers_set",
			Message: "in_peers and out_peers are both zero",
			Hint:    "the node would never connect to anyone",
		})
	}

	return errs
}

func (c *Configuration) validateStorage() []error {
	var errs []error
	db := c.Database

	if db.Kind != DatabaseAuto {
		errs = append(errs, ValidationError{
			Path:    "database.kind",
			Message: fmt.Sprintf("unsupported database kind %q", db.Kind),
			Hint:    "expected auto",
		})
	}
	if db.LegacyPath == "" || db.ParityPath == "" {
		errs = append(errs, ValidationError{
			Path:    "database",
			Message: "legacy_path and parity_path must both be set",
		})
	} else if db.LegacyPath == db.ParityPath {
		errs = append(errs, ValidationError{
			Path:    "database.parity_path",
			Message: "must differ from database.legacy_path",
		})
	}
	if db.CacheSize <= 0 {
		errs = append(errs, ValidationError{
			Path:    "database.cache_size",
			Message: fmt.Sprintf("must be > 0; got %d", db.CacheSize),
		})
	}

	if c.StateCacheSize <= 0 {
		errs = append(errs, ValidationError{
			Path:    "state_cache_size",
			Message: fmt.Sprintf("must be > 0; got %d", c.StateCacheSize),
		})
	}

	switch c.StatePruning.Kind {
	case PruningArchiveAll, PruningArchiveCanonical:
	case PruningConstrained:
		if c.StatePruning.MaxBlocks == 0 {
			errs = append(errs, ValidationError{
				Path:    "state_pruning.max_blocks",
				Message: "must be > 0 for constrained pruning",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Path:    "state_pruning.kind",
			Message: fmt.Sprintf("unknown pruning mode %q", c.StatePruning.Kind),
		})
	}

	switch c.TransactionStorage {
	case TransactionStorageBlockBody, TransactionStorageStorageChain:
	default:
		errs = append(errs, ValidationError{
			Path:    "transaction_storage",
			Message: fmt.Sprintf("unknown transaction storage mode %q", c.TransactionStorage),
		})
	}

	return errs
}

func (c *Configuration) validateExecution() []error {
	var errs []error
	ec := c.Execution

	switch ec.WasmMethod {
	case WasmInterpreted, WasmCompiled:
	default:
		errs = append(errs, ValidationError{
			Path:    "execution.wasm_method",
			Message: fmt.Sprintf("unknown wasm method %q", ec.WasmMethod),
			Hint:    "expected interpreted or compiled",
		})
	}

	slots := []struct {
		name string
		s    ExecutionStrategy
	}{
		{"syncing", ec.Strategies.Syncing},
		{"importing", ec.Strategies.Importing},
		{"block_construction", ec.Strategies.BlockConstruction},
		{"offchain_worker", ec.Strategies.OffchainWorker},
		{"other", ec.Strategies.Other},
	}
	for _, slot := range slots {
		switch slot.s {
		case NativeWhenPossible, AlwaysWasm, Both, NativeElseWasm:
		default:
			errs = append(errs, ValidationError{
				Path:    "execution.strategies." + slot.name,
				Message: fmt.Sprintf("unknown execution strategy %q", slot.s),
			})
		}
	}

	if _, ok := ec.Strategies.Uniform(); !ok {
		errs = append(errs, ValidationError{
			Path:    "execution.strategies",
			Message: "strategies differ between execution contexts",
			Hint:    "every context must use the same strategy",
		})
	}

	if ec.MaxRuntimeInstances < 1 || ec.MaxRuntimeInstances > MaxRuntimeInstancesLimit {
		errs = append(errs, ValidationError{
			Path:    "execution.max_runtime_instances",
			Message: fmt.Sprintf("must be between 1 and %d; got %d", MaxRuntimeInstancesLimit, ec.MaxRuntimeInstances),
		})
	}
	if ec.RuntimeCacheSize < 1 {
		errs = append(errs, ValidationError{
			Path:    "execution.runtime_cache_size",
			Message: fmt.Sprintf("must be >= 1; got %d", ec.RuntimeCacheSize),
		})
	}

	return errs
}

func (c *Configuration) validateRPC() []error {
	var errs []error
	rc := c.RPC

	switch rc.Methods {
	case RPCMethodsAuto, RPCMethodsSafe, RPCMethodsUnsafe:
	default:
		errs = append(errs, ValidationError{
			Path:    "rpc.methods",
			Message: fmt.Sprintf("unknown rpc methods policy %q", rc.Methods),
		})
	}

	listeners := []struct {
		path string
		addr string
	}{
		{"rpc.http", rc.HTTP},
		{"rpc.ws", rc.WS},
	}
	for _, l := range listeners {
		if l.addr == "" {
			continue
		}
		host, err := validateHostPort(l.addr)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    l.path,
				Message: err.Error(),
				Hint:    "expected format: host:port",
			})
			continue
		}
		// Privileged methods may only ever be reachable from this machine
		if rc.Methods == RPCMethodsUnsafe && !isLoopbackHost(host) {
			errs = append(errs, ValidationError{
				Path:    l.path,
				Message: fmt.Sprintf("unsafe rpc methods exposed on non-loopback address %s", l.addr),
				Hint:    "bind to 127.0.0.1 or use safe methods",
			})
		}
	}

	if rc.WSMaxConnections < 0 || rc.MaxPayload < 0 || rc.WSMaxOutBuffer < 0 {
		errs = append(errs, ValidationError{
			Path:    "rpc",
			Message: "connection and payload limits must be >= 0",
		})
	}

	return errs
}

func (c *Configuration) validateTelemetry() []error {
	var errs []error

	for i, ep := range c.TelemetryEndpoints {
		path := fmt.Sprintf("telemetry_endpoints[%d]", i)
		u, err := url.Parse(ep.URL)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid url: %v", err),
			})
			continue
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
				Hint:    "expected ws:// or wss://",
			})
		}
	}

	return errs
}

// Helper validation functions

func validateDataDir(path string) error {
	if path == "" {
		return fmt.Errorf("must not be empty")
	}

	// Expand ~ to home directory
	expandedPath := os.ExpandEnv(path)
	if strings.HasPrefix(expandedPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %v", err)
		}
		expandedPath = filepath.Join(home, expandedPath[1:])
	}

	if info, err := os.Stat(expandedPath); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory")
		}
		if err := validateDirWritable(expandedPath); err != nil {
			return err
		}
	} else if os.IsNotExist(err) {
		// Directory doesn't exist; it will be created at runtime as long as
		// the nearest existing parent is a directory
		parent := filepath.Dir(expandedPath)
		if info, err := os.Stat(parent); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("parent directory not accessible: %v", err)
			}
		} else if !info.IsDir() {
			return fmt.Errorf("parent path is not a directory")
		}
	} else {
		return fmt.Errorf("cannot access path: %v", err)
	}

	return nil
}

func validateDirWritable(path string) error {
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)
	return nil
}

// validateHostPort checks host:port and returns the host.
func validateHostPort(hostPort string) (string, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", fmt.Errorf("expected format host:port")
	}
	if host == "" {
		return "", fmt.Errorf("host must not be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return "", fmt.Errorf("port must be a number between 1 and 65535; got %q", port)
	}

	return host, nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// IsLoopbackAddr reports whether a host:port address binds to loopback only.
func IsLoopbackAddr(addr string) bool {
	host, err := validateHostPort(addr)
	if err != nil {
		return false
	}
	return isLoopbackHost(host)
}
