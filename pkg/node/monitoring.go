package node

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/logging"
	"github.com/DeBrosOfficial/fullnode/pkg/telemetry"
)

const informantInterval = 5 * time.Second

// informantLoop logs a status line at a fixed interval and reports peer
// count changes as they happen.
func (n *Node) informantLoop(ctx context.Context) error {
	ticker := time.NewTicker(informantInterval)
	defer ticker.Stop()

	lastPeerCount := 0
	firstCheck := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		current := len(n.host.Network().Peers())
		lastPeerCount, firstCheck = n.logPeerStatus(current, lastPeerCount, firstCheck)
		n.logger.ComponentInfo(logging.ComponentNode, n.statusLine(current))
	}
}

func (n *Node) logPeerStatus(current, last int, firstCheck bool) (int, bool) {
	if !firstCheck && current == last {
		return last, false
	}
	switch {
	case current == 0 && len(n.dialTargets()) > 0:
		n.logger.ComponentWarn(logging.ComponentNetwork, "Node has no connected peers",
			zap.String("peer_id", n.PeerID()))
	case current < last:
		n.logger.ComponentInfo(logging.ComponentNetwork, "Node lost peers",
			zap.Int("current_peers", current),
			zap.Int("previous_peers", last))
	case current > last && !firstCheck:
		n.logger.ComponentDebug(logging.ComponentNetwork, "Node gained peers",
			zap.Int("current_peers", current),
			zap.Int("previous_peers", last))
	}
	return current, false
}

// statusLine renders the informant message.
func (n *Node) statusLine(peers int) string {
	count := fmt.Sprintf("%d peers", peers)
	if n.cfg.Informant.EnableColor {
		count = logging.Bold + count + logging.Reset
	}
	state := n.syncState()
	if state.HighestBlock > state.CurrentBlock {
		return fmt.Sprintf("%sSyncing, target=#%d (%s), best: #%d",
			n.cfg.Informant.Prefix, state.HighestBlock, count, state.CurrentBlock)
	}
	return fmt.Sprintf("%sIdle (%s), best: #%d", n.cfg.Informant.Prefix, count, state.CurrentBlock)
}

func (n *Node) runTelemetry(ctx context.Context) error {
	client := telemetry.NewClient(
		n.cfg.TelemetryEndpoints,
		telemetry.ConnectionInfo{
			Chain:          chainName(n),
			Name:           n.cfg.Network.NodeName,
			Implementation: n.cfg.ImplName,
			Version:        n.cfg.ImplVersion,
			NetworkID:      n.PeerID(),
			Authority:      n.authority,
			StartupTime:    fmt.Sprintf("%d", n.started.UnixMilli()),
		},
		func() telemetry.Status {
			return telemetry.Status{Peers: len(n.host.Network().Peers())}
		},
		n.logger,
	)
	return client.Run(ctx)
}
