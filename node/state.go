// Package node holds the shared, mutex-guarded node state: the
// header chain, pending wallet transactions, and balances, consumed
// by both the peer loops (through the action fan-in) and any
// presentation layer.
package node

import (
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/nyxchain/spvnode/spverr"
	"github.com/nyxchain/spvnode/wire"
)

// Log is the package-level logging entry, set by the cmd wiring the
// same way common.Log is set in the teacher's cmd/root.go. Left nil in
// tests, where state changes don't need to be logged.
var Log *logrus.Entry

// WalletChanged is sent on every subscriber channel whenever the
// active wallet, its balance, or its pending set changes, mirroring
// original_source/src/gui/balance.rs's GUIActions::WalletChanged.
type WalletChanged struct{}

// PendingEntry maps a not-yet-confirmed output addressed to the
// active wallet to its outpoint.
type PendingEntry struct {
	Outpoint wire.Outpoint
	Output   *wire.TxOutput
}

// NodeState is the single shared object described in spec.md §3: the
// header chain, tip, downloaded blocks of interest, pending-tx map,
// and active wallet. All mutation goes through the action fan-in; any
// reader takes the shared lock only for the duration of a snapshot
// read.
type NodeState struct {
	mu sync.RWMutex

	chain     []*wire.BlockHeader
	heightIdx map[chainhash.Hash]int
	tip       chainhash.Hash

	blocks    map[chainhash.Hash]*wire.Block
	pending   map[wire.Outpoint]*wire.TxOutput
	confirmed map[wire.Outpoint]*wire.TxOutput

	confirmedBalance int64
	wallet           *Wallet

	subscribers []chan WalletChanged

	poisoned atomic.Bool
}

// New builds an empty NodeState with no chain and no active wallet.
func New() *NodeState {
	return &NodeState{
		heightIdx: make(map[chainhash.Hash]int),
		blocks:    make(map[chainhash.Hash]*wire.Block),
		pending:   make(map[wire.Outpoint]*wire.TxOutput),
		confirmed: make(map[wire.Outpoint]*wire.TxOutput),
	}
}

// Subscribe returns a channel that receives a WalletChanged value
// whenever SetWallet, RecordPending or ApplyBlock change the wallet's
// balance or pending set. The channel is buffered by one and sends are
// non-blocking, so a slow or absent reader never stalls the fan-in.
func (s *NodeState) Subscribe() <-chan WalletChanged {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan WalletChanged, 1)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *NodeState) notifyWalletChanged() {
	if Log != nil {
		Log.WithField("balance", s.confirmedBalance).Debug("wallet state changed")
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- WalletChanged{}:
		default:
		}
	}
}

// checkPoisoned panics out of a write that would otherwise run with
// inconsistent state, after a previous writer panicked mid-mutation.
// The core does not attempt recovery from this (spec.md §5).
func (s *NodeState) checkPoisoned() {
	if s.poisoned.Load() {
		panic(spverr.ErrLockPoisoned)
	}
}

// withWriteLock runs fn holding the exclusive lock, marking the state
// poisoned if fn panics and re-raising so the fatal condition isn't
// swallowed.
func (s *NodeState) withWriteLock(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkPoisoned()

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			panic(r)
		}
	}()

	err = fn()
	return
}

// Tip returns the hash of the highest accepted header, or the zero
// hash if the chain is empty.
func (s *NodeState) Tip() chainhash.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip
}

// Height returns the number of accepted headers.
func (s *NodeState) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chain)
}

// HeaderAt returns the header at the given height, or nil if out of
// range.
func (s *NodeState) HeaderAt(height int) *wire.BlockHeader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if height < 0 || height >= len(s.chain) {
		return nil
	}
	return s.chain[height]
}

// HeaderByHash looks up a header by its hash.
func (s *NodeState) HeaderByHash(hash chainhash.Hash) *wire.BlockHeader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.heightIdx[hash]
	if !ok {
		return nil
	}
	return s.chain[i]
}

// AppendHeaders validates that page chains from the current tip (each
// header's PrevBlockHash equal to the hash of its predecessor, the
// first chaining from the existing tip) and extends the chain
// atomically: either every header in page is accepted, or none are.
// PoW on each header was already checked at parse time (spec.md
// §4.4), so this only re-checks chain contiguity.
func (s *NodeState) AppendHeaders(page []*wire.BlockHeader) error {
	return s.withWriteLock(func() error {
		if len(page) == 0 {
			return nil
		}

		prev := s.tip
		haveTip := len(s.chain) > 0
		for i, h := range page {
			if haveTip || i > 0 {
				if h.PrevBlockHash != prev {
					if Log != nil {
						Log.WithField("height", len(s.chain)+i).Warn("rejecting headers page: broken chain")
					}
					return spverr.ErrChainBroken
				}
			}
			prev = h.Hash()
		}

		for _, h := range page {
			hash := h.Hash()
			s.heightIdx[hash] = len(s.chain)
			s.chain = append(s.chain, h)
			s.tip = hash
		}
		return nil
	})
}

// GetBalance returns satoshis owed to the active wallet across
// confirmed outputs minus confirmed spends.
func (s *NodeState) GetBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmedBalance
}

// GetPendingTxFromWallet returns a snapshot of the pending-tx map.
func (s *NodeState) GetPendingTxFromWallet() []PendingEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PendingEntry, 0, len(s.pending))
	for op, txOut := range s.pending {
		out = append(out, PendingEntry{Outpoint: op, Output: txOut})
	}
	return out
}

// ActiveWallet returns the wallet currently being tracked, or nil.
func (s *NodeState) ActiveWallet() *Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

// SetWallet atomically swaps the active wallet and notifies
// subscribers, clearing balances and pending entries accumulated
// against the previous wallet.
func (s *NodeState) SetWallet(w *Wallet) {
	s.withWriteLock(func() error {
		s.wallet = w
		s.confirmedBalance = 0
		s.pending = make(map[wire.Outpoint]*wire.TxOutput)
		s.confirmed = make(map[wire.Outpoint]*wire.TxOutput)
		s.notifyWalletChanged()
		return nil
	})
}

// isWalletOutput reports whether out is addressed to the active
// wallet's public key. The hex-decoded pubkey, or its hash160, is
// matched as a byte substring of the output script (scriptMatchesWallet),
// which is as much address-matching
// as this SPV core performs — full script evaluation is out of scope
// (spec.md §1).
func (s *NodeState) isWalletOutput(out *wire.TxOutput) bool {
	if s.wallet == nil {
		return false
	}
	return scriptMatchesWallet(out.Script, s.wallet.PubKey)
}

// RecordPending adds a transaction's outputs addressed to the active
// wallet to the pending map, ahead of the block that will confirm it.
func (s *NodeState) RecordPending(tx *wire.Transaction) {
	s.withWriteLock(func() error {
		txHash := tx.Hash()
		changed := false
		for i, out := range tx.Outputs {
			if !s.isWalletOutput(out) {
				continue
			}
			op := wire.Outpoint{Hash: txHash, Index: uint32(i)}
			s.pending[op] = out
			changed = true
		}
		if changed {
			s.notifyWalletChanged()
		}
		return nil
	})
}

// ApplyBlock scans a confirmed block's outputs and inputs: outputs
// addressed to the active wallet increase the confirmed balance and
// are dropped from the pending map (the block confirms what was
// pending); inputs spending a previously-confirmed wallet output
// decrease the balance. The block itself is recorded by header hash.
func (s *NodeState) ApplyBlock(block *wire.Block) {
	s.withWriteLock(func() error {
		hash := block.Header.Hash()
		s.blocks[hash] = block

		changed := false
		for _, tx := range block.Transactions {
			txHash := tx.Hash()
			for i, out := range tx.Outputs {
				if !s.isWalletOutput(out) {
					continue
				}
				op := wire.Outpoint{Hash: txHash, Index: uint32(i)}
				delete(s.pending, op)
				s.confirmed[op] = out
				s.confirmedBalance += out.Value
				changed = true
			}
			for _, in := range tx.Inputs {
				op := wire.Outpoint{Hash: in.PrevTxHash, Index: in.PrevTxOutIndex}
				delete(s.pending, op)
				if spent, ok := s.confirmed[op]; ok {
					delete(s.confirmed, op)
					s.confirmedBalance -= spent.Value
					changed = true
				}
			}
		}
		if changed {
			s.notifyWalletChanged()
		}
		return nil
	})
}
