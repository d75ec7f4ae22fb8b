package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T) host.Host {
	t.Helper()
	h, err := libp2p.New(libp2p.ListenAddrStrings("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(75)
	assert.Equal(t, 75, cfg.MaxConnections)
	assert.Positive(t, cfg.DiscoveryInterval)
	assert.Positive(t, cfg.DialTimeout)
}

func TestDiscoverPeersDialsPeerstore(t *testing.T) {
	h := newHost(t)
	a, b := newHost(t), newHost(t)
	for _, other := range []host.Host{a, b} {
		h.Peerstore().AddAddrs(other.ID(), other.Addrs(), time.Hour)
	}

	d := NewManager(h, DefaultConfig(10), nil)
	assert.Equal(t, 2, d.DiscoverPeers(context.Background()))
	assert.Len(t, h.Network().Peers(), 2)

	// Already connected peers are not dialed again
	assert.Equal(t, 0, d.DiscoverPeers(context.Background()))
}

func TestDiscoverPeersRespectsLimit(t *testing.T) {
	h := newHost(t)
	for i := 0; i < 3; i++ {
		other := newHost(t)
		h.Peerstore().AddAddrs(other.ID(), other.Addrs(), time.Hour)
	}

	d := NewManager(h, DefaultConfig(1), nil)
	assert.Equal(t, 1, d.DiscoverPeers(context.Background()))
	assert.Equal(t, 0, d.DiscoverPeers(context.Background()))
}

func TestDiscoverPeersSkipsPeersWithoutAddrs(t *testing.T) {
	h := newHost(t)
	other := newHost(t)
	h.Peerstore().AddProtocols(other.ID(), "/test/1.0.0")

	d := NewManager(h, DefaultConfig(10), nil)
	assert.Equal(t, 0, d.DiscoverPeers(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	d := NewManager(newHost(t), DefaultConfig(10), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
