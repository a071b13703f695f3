package peer

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/nyxchain/spvnode/metrics"
	"github.com/nyxchain/spvnode/node"
	"github.com/nyxchain/spvnode/wire"
)

// Retrier re-requests data a peer failed to serve. StreamLoop
// implements it against its own connection; the consumer only needs
// the narrow interface so it stays decoupled from the socket.
type Retrier interface {
	RetryGetHeaders(tip chainhash.Hash) error
	RetryGetData(inventories []wire.Inventory) error
}

// Persister records an accepted headers page so a restart resumes
// from it instead of re-downloading the chain. storage.Store
// implements it; the consumer only needs this narrow slice of it.
type Persister interface {
	StoreHeaders(startHeight int, headers []*wire.BlockHeader) error
}

// Consumer is the single reader of a NodeAction channel, serializing
// every mutation of node.NodeState behind one goroutine (spec.md
// §4.8): callers send NodeAction values from one or more
// PeerStreamLoops, the consumer applies them one at a time.
type Consumer struct {
	state   *node.NodeState
	log     *logrus.Entry
	persist Persister
}

func NewConsumer(state *node.NodeState, log *logrus.Entry, persist Persister) *Consumer {
	return &Consumer{state: state, log: log, persist: persist}
}

// Run drains actions until the channel is closed, applying each to
// state and asking retry to re-request anything a peer failed to
// deliver.
func (c *Consumer) Run(actions <-chan NodeAction, retry Retrier) {
	for a := range actions {
		switch a.Kind {
		case ActionNewHeaders:
			c.handleNewHeaders(a, retry)
		case ActionGetHeadersError:
			c.log.Warn("peer failed to serve a headers page, retrying")
			if err := retry.RetryGetHeaders(c.state.Tip()); err != nil {
				c.log.WithError(err).Error("retrying getheaders")
			}
		case ActionBlock:
			c.state.ApplyBlock(a.Block)
		case ActionGetDataError:
			c.log.WithField("count", len(a.Inventories)).Warn("peer could not serve requested data, retrying")
			if err := retry.RetryGetData(a.Inventories); err != nil {
				c.log.WithError(err).Error("retrying getdata")
			}
		case ActionWalletChanged:
			// no-op: NodeState already notified its own subscribers.
		default:
			c.log.WithField("kind", a.Kind).Warn("unhandled node action kind")
		}
	}
}

func (c *Consumer) handleNewHeaders(a NodeAction, retry Retrier) {
	if a.Headers == nil {
		return
	}
	startHeight := c.state.Height()
	if err := c.state.AppendHeaders(a.Headers.Headers); err != nil {
		c.log.WithError(err).Error("rejecting headers page")
		return
	}

	if c.persist != nil {
		if err := c.persist.StoreHeaders(startHeight, a.Headers.Headers); err != nil {
			c.log.WithError(err).Error("persisting accepted headers page")
		}
	}

	metrics.ChainHeight.Set(float64(c.state.Height()))
	c.log.WithField("height", c.state.Height()).Info("accepted headers page")
}
