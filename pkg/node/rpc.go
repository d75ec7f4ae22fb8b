package node

import (
	"context"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/executor"
	"github.com/DeBrosOfficial/fullnode/pkg/rpc"
)

// Health is the result of system_health.
type Health struct {
	Peers           int  `json:"peers"`
	IsSyncing       bool `json:"isSyncing"`
	ShouldHavePeers bool `json:"shouldHavePeers"`
}

// PeerInfo is one entry of system_peers.
type PeerInfo struct {
	PeerID string   `json:"peerId"`
	Addrs  []string `json:"addrs"`
}

func (n *Node) startRPC() error {
	n.rpc = rpc.NewServer(n.cfg.RPC, n.logger)
	n.registerMethods(n.rpc)

	n.rpcAddrs = make(map[rpc.Transport]net.Addr)
	for transport, addr := range map[rpc.Transport]string{
		rpc.TransportWS:   n.cfg.RPC.WS,
		rpc.TransportHTTP: n.cfg.RPC.HTTP,
	} {
		if addr == "" {
			continue
		}
		bound, err := n.rpc.Start(addr, transport)
		if err != nil {
			return err
		}
		n.rpcAddrs[transport] = bound
	}
	return nil
}

func (n *Node) registerMethods(s *rpc.Server) {
	s.Register("system_name", false, func(context.Context, json.RawMessage) (any, error) {
		return n.cfg.ImplName, nil
	})
	s.Register("system_version", false, func(context.Context, json.RawMessage) (any, error) {
		return n.cfg.ImplVersion, nil
	})
	s.Register("system_chain", false, func(context.Context, json.RawMessage) (any, error) {
		return chainName(n), nil
	})
	s.Register("system_properties", false, func(context.Context, json.RawMessage) (any, error) {
		if n.cfg.ChainSpec == nil {
			return map[string]any{}, nil
		}
		return chainspec.Properties(n.cfg.ChainSpec), nil
	})
	s.Register("system_health", false, func(context.Context, json.RawMessage) (any, error) {
		return n.health(), nil
	})
	s.Register("system_syncState", false, func(context.Context, json.RawMessage) (any, error) {
		return n.syncState(), nil
	})
	s.Register("system_localPeerId", false, func(context.Context, json.RawMessage) (any, error) {
		return n.PeerID(), nil
	})
	s.Register("system_nodeRoles", false, func(context.Context, json.RawMessage) (any, error) {
		return []string{roleName(n.cfg.Role, n.authority)}, nil
	})
	s.Register("state_getRuntimeCodeHash", false, func(context.Context, json.RawMessage) (any, error) {
		code, hash := n.runtimeCode()
		if code == nil {
			return nil, nil
		}
		return hash.String(), nil
	})
	s.Register("state_call", false, n.stateCall)

	s.Register("system_peers", true, func(context.Context, json.RawMessage) (any, error) {
		return n.peers(), nil
	})
	s.Register("system_localListenAddresses", true, func(context.Context, json.RawMessage) (any, error) {
		return n.listenAddrs(), nil
	})
	s.Register("system_addReservedPeer", true, n.addReservedPeer)
}

func (n *Node) health() Health {
	state := n.syncState()
	return Health{
		Peers:           len(n.host.Network().Peers()),
		IsSyncing:       state.HighestBlock > state.CurrentBlock,
		ShouldHavePeers: len(n.dialTargets()) > 0,
	}
}

func (n *Node) peers() []PeerInfo {
	ids := n.host.Network().Peers()
	out := make([]PeerInfo, 0, len(ids))
	for _, id := range ids {
		info := PeerInfo{PeerID: id.String(), Addrs: []string{}}
		for _, conn := range n.host.Network().ConnsToPeer(id) {
			info.Addrs = append(info.Addrs, conn.RemoteMultiaddr().String())
		}
		out = append(out, info)
	}
	return out
}

// stateCall runs a runtime export. params are [method, "0x" input].
func (n *Node) stateCall(ctx context.Context, params json.RawMessage) (any, error) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 || len(args) > 2 {
		return nil, errors.NewValidationError("params", "expected [method, data]", string(params))
	}

	var input []byte
	if len(args) == 2 {
		decoded, err := hex.DecodeString(strings.TrimPrefix(args[1], "0x"))
		if err != nil {
			return nil, errors.NewValidationError("data", "invalid hex", args[1])
		}
		input = decoded
	}

	code, _ := n.runtimeCode()
	if code == nil {
		return nil, errors.NewServiceError("executor", "no runtime loaded", nil)
	}

	out, err := n.executor.Execute(ctx, executor.Call{
		Context: config.ContextOther,
		Code:    code,
		Method:  args[0],
		Input:   input,
	})
	if err != nil {
		if stderrors.Is(err, executor.ErrMethodNotFound) {
			return nil, errors.NewValidationError("method", err.Error(), args[0])
		}
		return nil, errors.NewServiceError("executor", "runtime call failed", err)
	}
	return "0x" + hex.EncodeToString(out), nil
}

func (n *Node) addReservedPeer(ctx context.Context, params json.RawMessage) (any, error) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) != 1 {
		return nil, errors.NewValidationError("params", "expected [multiaddr]", string(params))
	}
	ma, err := multiaddr.NewMultiaddr(args[0])
	if err != nil {
		return nil, errors.NewValidationError("multiaddr", err.Error(), args[0])
	}
	info, err := peer.AddrInfoFromP2pAddr(ma)
	if err != nil {
		return nil, errors.NewValidationError("multiaddr", "missing /p2p peer id", args[0])
	}

	n.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstoreTTL)
	n.connMgr.Protect(info.ID, reservedTag)
	if err := n.host.Connect(ctx, *info); err != nil {
		return nil, errors.NewServiceError("network", fmt.Sprintf("failed to connect to %s", info.ID), err)
	}
	return nil, nil
}

func roleName(role config.Role, authority bool) string {
	switch {
	case authority || role == config.RoleAuthority:
		return "Authority"
	case role == config.RoleLight:
		return "Light"
	default:
		return "Full"
	}
}

func chainName(n *Node) string {
	if n.cfg.ChainSpec == nil {
		return ""
	}
	return chainspec.DisplayName(n.cfg.ChainSpec)
}
