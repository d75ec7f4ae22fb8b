// Package discovery dials peers the node has learned addresses for until
// its outbound slots are filled.
package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"
)

// Config contains discovery configuration
type Config struct {
	DiscoveryInterval time.Duration
	// MaxConnections caps connected peers; discovery stops dialing once
	// the host has this many.
	MaxConnections int
	DialTimeout    time.Duration
}

// DefaultConfig returns the discovery settings for outPeers outbound slots.
func DefaultConfig(outPeers int) Config {
	return Config{
		DiscoveryInterval: 30 * time.Second,
		MaxConnections:    outPeers,
		DialTimeout:       10 * time.Second,
	}
}

// Manager handles peer discovery from the host's peerstore.
type Manager struct {
	host   host.Host
	logger *zap.Logger
	config Config
}

// NewManager creates a discovery manager for h.
func NewManager(h host.Host, config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{host: h, logger: logger, config: config}
}

// Run discovers immediately and then at every interval until ctx is done.
func (d *Manager) Run(ctx context.Context) error {
	d.DiscoverPeers(ctx)

	ticker := time.NewTicker(d.config.DiscoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.DiscoverPeers(ctx)
		}
	}
}

// DiscoverPeers dials known but unconnected peers while slots are free and
// returns how many new connections were made.
func (d *Manager) DiscoverPeers(ctx context.Context) int {
	initialCount := len(d.host.Network().Peers())
	free := d.config.MaxConnections - initialCount
	if free <= 0 {
		return 0
	}

	connected := 0
	for _, pid := range d.host.Peerstore().Peers() {
		if connected >= free || ctx.Err() != nil {
			break
		}
		if pid == d.host.ID() {
			continue
		}
		if d.host.Network().Connectedness(pid) == network.Connected {
			continue
		}
		if err := d.connectToPeer(ctx, pid); err == nil {
			connected++
		}
	}

	if connected > 0 {
		d.logger.Debug("Peer discovery completed",
			zap.Int("new_connections", connected),
			zap.Int("initial_peers", initialCount),
			zap.Int("final_peers", len(d.host.Network().Peers())))
	}
	return connected
}

// connectToPeer attempts to connect to a specific peer using its peerstore info.
func (d *Manager) connectToPeer(ctx context.Context, peerID peer.ID) error {
	peerInfo := d.host.Peerstore().PeerInfo(peerID)
	if len(peerInfo.Addrs) == 0 {
		return errors.New("no addresses for peer")
	}

	if d.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.DialTimeout)
		defer cancel()
	}

	if err := d.host.Connect(ctx, peerInfo); err != nil {
		d.logger.Debug("Failed to connect to peer",
			zap.String("peer_id", peerID.String()),
			zap.Error(err))
		return err
	}

	d.logger.Debug("Connected to discovered peer", zap.String("peer_id", peerID.String()))
	return nil
}
