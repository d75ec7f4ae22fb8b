package node

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	noise "github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/backoff"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
)

const (
	reconnectInterval = 5 * time.Second
	maxReconnect      = 10 * time.Minute
	healthyInterval   = 30 * time.Second
	peerstoreTTL      = 24 * time.Hour
	reservedTag       = "reserved"
)

// startNetwork creates the libp2p host, registers boot and reserved nodes
// and makes a first best-effort dial.
func (n *Node) startNetwork() error {
	netCfg := n.cfg.Network

	listenAddrs, err := netCfg.ParseListenAddresses()
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	peers := netCfg.DefaultPeersSet
	high := int(peers.InPeers + peers.OutPeers)
	low := int(peers.OutPeers)
	if low > high {
		low = high
	}
	cm, err := connmgr.NewConnManager(low, high, connmgr.WithGracePeriod(time.Minute))
	if err != nil {
		return fmt.Errorf("failed to create connection manager: %w", err)
	}
	n.connMgr = cm

	n.logger.ComponentInfo(logging.ComponentNetwork, "Starting libp2p host",
		zap.Strings("listen_addrs", netCfg.ListenAddresses),
		zap.Uint32("in_peers", peers.InPeers),
		zap.Uint32("out_peers", peers.OutPeers),
	)

	h, err := libp2p.New(
		libp2p.Identity(n.identity.PrivateKey),
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.Security(noise.ID, noise.New),
		libp2p.DefaultMuxers,
		libp2p.DefaultTransports,
		libp2p.UserAgent(netCfg.ClientID),
		libp2p.ConnectionManager(cm),
	)
	if err != nil {
		return err
	}
	n.host = h

	for _, info := range n.reservedPeers() {
		h.Peerstore().AddAddrs(info.ID, info.Addrs, peerstoreTTL)
		cm.Protect(info.ID, reservedTag)
	}
	for _, info := range n.bootPeers() {
		h.Peerstore().AddAddrs(info.ID, info.Addrs, peerstoreTTL)
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if connected := n.connectToPeers(dialCtx); connected == 0 && len(n.dialTargets()) > 0 {
		n.logger.ComponentWarn(logging.ComponentNetwork, "Could not reach any boot node yet, will keep retrying")
	}
	return nil
}

// bootPeers returns the parsed boot nodes, skipping malformed entries and
// the node itself.
func (n *Node) bootPeers() []peer.AddrInfo {
	return n.parsePeers(n.cfg.Network.BootNodes)
}

func (n *Node) reservedPeers() []peer.AddrInfo {
	return n.parsePeers(n.cfg.Network.DefaultPeersSet.ReservedNodes)
}

// dialTargets returns the peers the node keeps connections to.
func (n *Node) dialTargets() []peer.AddrInfo {
	if n.cfg.Network.DefaultPeersSet.ReservedOnly {
		return n.reservedPeers()
	}
	return append(n.reservedPeers(), n.bootPeers()...)
}

func (n *Node) parsePeers(addrs []string) []peer.AddrInfo {
	infos := make([]peer.AddrInfo, 0, len(addrs))
	for _, addr := range addrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			n.logger.ComponentWarn(logging.ComponentNetwork, "Skipping malformed peer address",
				zap.String("addr", addr), zap.Error(err))
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			n.logger.ComponentWarn(logging.ComponentNetwork, "Skipping peer address without peer id",
				zap.String("addr", addr), zap.Error(err))
			continue
		}
		if n.identity != nil && info.ID == n.identity.PeerID {
			continue
		}
		infos = append(infos, *info)
	}
	return infos
}

// connectToPeers dials every target not already connected and returns how
// many are connected afterwards.
func (n *Node) connectToPeers(ctx context.Context) int {
	connected := 0
	for _, info := range n.dialTargets() {
		if len(n.host.Network().ConnsToPeer(info.ID)) > 0 {
			connected++
			continue
		}
		if err := n.host.Connect(ctx, info); err != nil {
			n.logger.ComponentDebug(logging.ComponentNetwork, "Failed to connect to peer",
				zap.String("peer", info.ID.String()), zap.Error(err))
			continue
		}
		connected++
		n.logger.ComponentInfo(logging.ComponentNetwork, "Connected to peer",
			zap.String("peer", info.ID.String()))
	}
	return connected
}

// peerReconnectionLoop redials boot and reserved nodes with backoff while
// the node has no connections to them.
func (n *Node) peerReconnectionLoop(ctx context.Context) error {
	if len(n.dialTargets()) == 0 {
		return nil
	}

	interval := reconnectInterval
	for {
		wait := healthyInterval
		if !n.hasTargetConnections() {
			if n.connectToPeers(ctx) == 0 {
				wait = backoff.Jitter(interval, time.Second)
				interval = backoff.Next(interval, maxReconnect)
			} else {
				interval = reconnectInterval
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (n *Node) hasTargetConnections() bool {
	for _, info := range n.dialTargets() {
		if len(n.host.Network().ConnsToPeer(info.ID)) > 0 {
			return true
		}
	}
	return false
}

// listenAddrs returns the host's listen addresses with the /p2p suffix.
func (n *Node) listenAddrs() []string {
	if n.host == nil {
		return nil
	}
	suffix := "/p2p/" + n.host.ID().String()
	out := make([]string, 0, len(n.host.Addrs()))
	for _, addr := range n.host.Addrs() {
		out = append(out, addr.String()+suffix)
	}
	return out
}
