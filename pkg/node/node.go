// Package node runs a full chain node: storage, networking, runtime
// execution and the RPC and telemetry surfaces.
package node

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/bootstrap"
	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/database"
	"github.com/DeBrosOfficial/fullnode/pkg/discovery"
	"github.com/DeBrosOfficial/fullnode/pkg/encryption"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/executor"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
	"github.com/DeBrosOfficial/fullnode/pkg/pubsub"
	"github.com/DeBrosOfficial/fullnode/pkg/rpc"
)

// codeKey is where the active runtime is stored.
var codeKey = []byte(":code")

// Node is a running full node.
type Node struct {
	cfg       *config.Configuration
	logger    *logging.ColoredLogger
	authority bool
	started   time.Time

	db       database.Store
	identity *encryption.IdentityInfo
	host     host.Host
	connMgr  *connmgr.BasicConnMgr
	gossip   *pubsub.Manager
	executor *executor.Executor
	rpc      *rpc.Server
	rpcAddrs map[rpc.Transport]net.Addr

	codeMu   sync.RWMutex
	code     []byte
	codeHash executor.CodeHash

	// bestSeen is the highest block number announced by a peer.
	bestSeen atomic.Uint64

	ctx      context.Context
	cancel   context.CancelFunc
	loops    sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// NewFull starts a full node for cfg. authority enables block authoring
// duties. On failure every component started so far is stopped again.
func NewFull(ctx context.Context, cfg *config.Configuration, env *bootstrap.Environment, authority bool) (*Node, error) {
	if cfg == nil {
		return nil, stderrors.New("nil configuration")
	}

	logger := logging.L()
	if env != nil && env.Logger != nil {
		logger = env.Logger
	}

	n := &Node{
		cfg:       cfg,
		logger:    logger,
		authority: authority,
		started:   time.Now(),
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	if err := n.start(ctx); err != nil {
		_ = n.Stop(context.Background())
		return nil, err
	}
	return n, nil
}

func (n *Node) start(ctx context.Context) error {
	n.logger.ComponentInfo(logging.ComponentNode, "Starting full node",
		zap.String("chain", chainID(n.cfg.ChainSpec)),
		zap.String("node_name", n.cfg.Network.NodeName),
		zap.String("role", string(n.cfg.Role)),
		zap.Bool("authority", n.authority),
		zap.Bool("force_authoring", n.cfg.ForceAuthoring),
	)

	db, err := database.Open(n.cfg.Database, n.logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db

	identity, created, err := encryption.LoadOrCreateIdentity(n.cfg.Network.NodeKey.File)
	if err != nil {
		return fmt.Errorf("failed to load node key: %w", err)
	}
	n.identity = identity
	if created {
		n.logger.ComponentInfo(logging.ComponentNetwork, "Generated new node key",
			zap.String("file", n.cfg.Network.NodeKey.File))
	}

	if err := n.startNetwork(); err != nil {
		return fmt.Errorf("failed to start network: %w", err)
	}
	if err := n.startGossip(); err != nil {
		return fmt.Errorf("failed to start gossip: %w", err)
	}

	if err := n.startExecutor(ctx); err != nil {
		return fmt.Errorf("failed to start executor: %w", err)
	}

	if err := n.startRPC(); err != nil {
		return fmt.Errorf("failed to start RPC: %w", err)
	}

	n.spawn("peer-reconnect", n.peerReconnectionLoop)
	n.spawn("announce", n.announceLoop)
	if !n.cfg.Network.DefaultPeersSet.ReservedOnly {
		disc := discovery.NewManager(n.host, discovery.DefaultConfig(int(n.cfg.Network.DefaultPeersSet.OutPeers)), n.logger.Logger)
		n.spawn("discovery", disc.Run)
	}
	n.spawn("informant", n.informantLoop)
	if len(n.cfg.TelemetryEndpoints) > 0 {
		n.spawn("telemetry", n.runTelemetry)
	}

	n.logger.ComponentInfo(logging.ComponentNode, "Full node started",
		zap.String("peer_id", n.host.ID().String()),
		zap.Strings("listen_addrs", n.listenAddrs()),
	)
	return nil
}

// spawn runs fn on the configured task executor. fn's context is cancelled
// when either the executor or the node stops.
func (n *Node) spawn(name string, fn func(ctx context.Context) error) {
	n.loops.Add(1)
	run := func(ctx context.Context) error {
		defer n.loops.Done()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(n.ctx, cancel)
		defer stop()
		return fn(ctx)
	}

	if n.cfg.Tasks != nil {
		n.cfg.Tasks.Spawn(name, run)
		return
	}
	go func() {
		if err := run(context.Background()); err != nil {
			n.logger.ComponentError(logging.ComponentNode, "Background task failed",
				zap.String("task", name), zap.Error(err))
		}
	}()
}

func (n *Node) startExecutor(ctx context.Context) error {
	exec, err := executor.New(ctx, n.cfg.Execution, nil, n.logger.Logger)
	if err != nil {
		return err
	}
	n.executor = exec

	code, err := chainspec.RuntimeCode(n.cfg.ChainSpec)
	if err != nil {
		return err
	}
	if code == nil {
		stored, err := n.db.Get(codeKey)
		switch {
		case stderrors.Is(err, database.ErrNotFound):
			n.logger.ComponentWarn(logging.ComponentExecutor, "No runtime code in chain spec or database")
			return nil
		case err != nil:
			return err
		}
		code = stored
	} else if err := n.db.Put(codeKey, code); err != nil {
		return fmt.Errorf("failed to store runtime code: %w", err)
	}

	hash, err := exec.Prepare(ctx, code)
	if err != nil {
		return err
	}

	n.codeMu.Lock()
	n.code, n.codeHash = code, hash
	n.codeMu.Unlock()

	n.logger.ComponentInfo(logging.ComponentExecutor, "Runtime loaded",
		zap.String("code_hash", hash.String()),
		zap.Int("code_size", len(code)),
	)
	return nil
}

// runtimeCode returns the active runtime, or nil when none is loaded.
func (n *Node) runtimeCode() ([]byte, executor.CodeHash) {
	n.codeMu.RLock()
	defer n.codeMu.RUnlock()
	return n.code, n.codeHash
}

// PeerID returns the node's network identity.
func (n *Node) PeerID() string {
	if n.host == nil {
		return ""
	}
	return n.host.ID().String()
}

// RPCAddr returns the address the RPC server listens on for transport, or
// nil when that transport is disabled.
func (n *Node) RPCAddr(transport rpc.Transport) net.Addr {
	return n.rpcAddrs[transport]
}

// Stop shuts every component down in reverse start order. It is safe to
// call more than once.
func (n *Node) Stop(ctx context.Context) error {
	n.stopOnce.Do(func() {
		n.logger.ComponentInfo(logging.ComponentNode, "Stopping full node")
		n.cancel()

		var errs []error
		if n.rpc != nil {
			if err := n.rpc.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("rpc: %w", err))
			}
		}

		waitStart := time.Now()
		done := make(chan struct{})
		go func() {
			n.loops.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, errors.NewTimeoutError("stopping background tasks", time.Since(waitStart).Round(time.Millisecond).String()))
		}

		if n.executor != nil {
			if err := n.executor.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("executor: %w", err))
			}
		}
		if n.gossip != nil {
			_ = n.gossip.Close()
		}
		if n.host != nil {
			if err := n.host.Close(); err != nil {
				errs = append(errs, fmt.Errorf("network: %w", err))
			}
		}
		if n.db != nil {
			if err := n.db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}

		n.stopErr = stderrors.Join(errs...)
		n.logger.ComponentInfo(logging.ComponentNode, "Full node stopped")
	})
	return n.stopErr
}

func chainID(spec chainspec.ChainSpec) string {
	if spec == nil {
		return ""
	}
	return spec.ID()
}
