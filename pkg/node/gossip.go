package node

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	libp2ppubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/logging"
	"github.com/DeBrosOfficial/fullnode/pkg/pubsub"
)

const (
	topicBlockAnnounces = "block-announces"
	topicPeerAddrs      = "peer-addrs"
	announceInterval    = 30 * time.Second
)

// BlockAnnouncement is gossiped by nodes with block announcing enabled.
// CodeHash identifies the runtime the announcing node executes and is empty
// when it has none.
type BlockAnnouncement struct {
	Number   uint64 `json:"number"`
	CodeHash string `json:"codeHash,omitempty"`
}

// peerRecord is gossiped so peers can learn each other's addresses.
type peerRecord struct {
	PeerID string   `json:"peer_id"`
	Addrs  []string `json:"addrs"`
}

// SyncState is the result of system_syncState.
type SyncState struct {
	StartingBlock uint64 `json:"startingBlock"`
	CurrentBlock  uint64 `json:"currentBlock"`
	HighestBlock  uint64 `json:"highestBlock"`
}

func (n *Node) startGossip() error {
	ps, err := libp2ppubsub.NewGossipSub(n.ctx, n.host,
		libp2ppubsub.WithPeerExchange(true),
	)
	if err != nil {
		return fmt.Errorf("failed to create gossipsub: %w", err)
	}

	n.gossip = pubsub.NewManager(ps, chainID(n.cfg.ChainSpec), n.logger.Logger)
	if err := n.gossip.Subscribe(topicBlockAnnounces, n.handleBlockAnnouncement); err != nil {
		return err
	}
	if err := n.gossip.Subscribe(topicPeerAddrs, n.handlePeerRecord); err != nil {
		return err
	}

	n.logger.ComponentInfo(logging.ComponentNetwork, "Joined gossip topics",
		zap.Strings("topics", n.gossip.ListTopics()),
		zap.Bool("announce_block", n.cfg.AnnounceBlock),
	)
	return nil
}

func (n *Node) handleBlockAnnouncement(_ string, from peer.ID, data []byte) error {
	if from == n.host.ID() {
		return nil
	}
	var ann BlockAnnouncement
	if err := json.Unmarshal(data, &ann); err != nil {
		return err
	}

	for {
		seen := n.bestSeen.Load()
		if ann.Number <= seen || n.bestSeen.CompareAndSwap(seen, ann.Number) {
			break
		}
	}
	return nil
}

func (n *Node) handlePeerRecord(_ string, from peer.ID, data []byte) error {
	var rec peerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	id, err := peer.Decode(rec.PeerID)
	if err != nil {
		return err
	}
	if id == n.host.ID() || id != from {
		return nil
	}

	addrs := make([]multiaddr.Multiaddr, 0, len(rec.Addrs))
	for _, s := range rec.Addrs {
		if ma, err := multiaddr.NewMultiaddr(s); err == nil {
			addrs = append(addrs, ma)
		}
	}
	n.host.Peerstore().AddAddrs(id, addrs, peerstoreTTL)
	return nil
}

// announceLoop gossips the node's addresses and, when enabled, its best
// block.
func (n *Node) announceLoop(ctx context.Context) error {
	ticker := time.NewTicker(announceInterval)
	defer ticker.Stop()

	for {
		n.announce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (n *Node) announce(ctx context.Context) {
	addrs := make([]string, 0, len(n.host.Addrs()))
	for _, a := range n.host.Addrs() {
		addrs = append(addrs, a.String())
	}
	n.publish(ctx, topicPeerAddrs, peerRecord{PeerID: n.host.ID().String(), Addrs: addrs})

	if n.cfg.AnnounceBlock {
		n.publish(ctx, topicBlockAnnounces, n.blockAnnouncement())
	}
}

func (n *Node) blockAnnouncement() BlockAnnouncement {
	ann := BlockAnnouncement{Number: n.bestBlock()}
	if code, hash := n.runtimeCode(); code != nil {
		ann.CodeHash = hash.String()
	}
	return ann
}

func (n *Node) publish(ctx context.Context, topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := n.gossip.Publish(ctx, topic, data); err != nil && ctx.Err() == nil {
		n.logger.ComponentDebug(logging.ComponentNetwork, "Failed to publish gossip",
			zap.String("topic", topic), zap.Error(err))
	}
}

// bestBlock is the node's own best block. Only genesis is held locally.
func (n *Node) bestBlock() uint64 {
	return 0
}

func (n *Node) syncState() SyncState {
	highest := n.bestSeen.Load()
	if best := n.bestBlock(); best > highest {
		highest = best
	}
	return SyncState{CurrentBlock: n.bestBlock(), HighestBlock: highest}
}
