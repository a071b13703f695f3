package wire

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nyxchain/spvnode/spverr"
)

// Block is a header plus its transactions, content-addressed by the
// header's hash.
type Block struct {
	Header       *BlockHeader
	Transactions []*Transaction
}

func (b *Block) Command() string { return "block" }

// Serialize writes the 80-byte header, a varint transaction count, and
// each transaction's consensus encoding.
func (b *Block) Serialize() []byte {
	buf := make([]byte, 0, blockHeaderSize)
	buf = append(buf, b.Header.Serialize()...)
	buf = append(buf, Count(len(b.Transactions)).ToVarIntBytes()...)
	for _, tx := range b.Transactions {
		buf = append(buf, tx.serialize()...)
	}
	return buf
}

// ParseBlock decodes a block message payload: an 80-byte header
// (proof-of-work is NOT re-checked here; the header was already
// validated when it arrived via a headers page), a varint transaction
// count, and that many transactions.
func ParseBlock(payload []byte) (*Block, error) {
	p := NewBufferParser(payload)

	headerBytes, err := p.ExtractBuffer(blockHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := ParseBlockHeader(headerBytes, false)
	if err != nil {
		return nil, err
	}

	txCount, err := p.ExtractVarInt()
	if err != nil {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}

	txs := make([]*Transaction, txCount)
	for i := range txs {
		tx, err := parseTransaction(p)
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}
		txs[i] = tx
	}

	return &Block{Header: header, Transactions: txs}, nil
}

// CreateMerkleRoot rebuilds the merkle root from the block's
// transaction identifiers and compares it against the root carried in
// the header, returning ErrInvalidMerkleRoot on mismatch.
func (b *Block) CreateMerkleRoot() (chainhash.Hash, error) {
	root := merkleRoot(b.Transactions)
	if root != b.Header.MerkleRoot {
		return chainhash.Hash{}, spverr.ErrInvalidMerkleRoot
	}
	return root, nil
}

// merkleRoot pairwise-hashes transaction identifiers into levels,
// duplicating the last element at any odd-sized level, until one
// 32-byte root remains.
func merkleRoot(txs []*Transaction) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		level[i] = tx.Hash()
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}

	return level[0]
}

func hashPair(a, b chainhash.Hash) chainhash.Hash {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	return chainhash.Hash(second)
}
