// Package peer drives one TCP connection to a full node: the blocking
// read-dispatch loop that turns wire messages into NodeAction values,
// and the single fan-in consumer that applies them to node.NodeState.
package peer

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nyxchain/spvnode/wire"
)

// ActionKind tags the variant carried by a NodeAction.
type ActionKind int

const (
	ActionNewHeaders ActionKind = iota
	ActionGetHeadersError
	ActionBlock
	ActionGetDataError
	ActionWalletChanged
)

// NodeAction is the single message type a PeerStreamLoop sends to the
// fan-in consumer, mirroring the action values
// original_source/src/threads/peer_stream_loop.rs sends over its
// node_action_sender channel, as a tagged struct rather than an
// interface so the consumer's switch stays exhaustive over Kind.
type NodeAction struct {
	Kind ActionKind

	Headers     *wire.HeadersMessage
	BlockHash   chainhash.Hash
	Block       *wire.Block
	Inventories []wire.Inventory
}

func NewHeadersAction(h *wire.HeadersMessage) NodeAction {
	return NodeAction{Kind: ActionNewHeaders, Headers: h}
}

func GetHeadersErrorAction() NodeAction {
	return NodeAction{Kind: ActionGetHeadersError}
}

func BlockAction(hash chainhash.Hash, b *wire.Block) NodeAction {
	return NodeAction{Kind: ActionBlock, BlockHash: hash, Block: b}
}

func GetDataErrorAction(invs []wire.Inventory) NodeAction {
	return NodeAction{Kind: ActionGetDataError, Inventories: invs}
}
