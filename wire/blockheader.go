package wire

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nyxchain/spvnode/spverr"
)

// blockHeaderSize is the fixed 80-byte wire size of a Bitcoin block
// header: version(4) + prev_block_hash(32) + merkle_root(32) +
// timestamp(4) + bits(4) + nonce(4).
const blockHeaderSize = 80

// BlockHeader is the 80-byte proof-of-work envelope shared by the
// headers message and the block message. Once parsed and validated it
// is never mutated; NodeState appends the same pointer to its chain.
type BlockHeader struct {
	Version       int32
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Serialize returns the 80-byte little-endian wire encoding.
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, 0, blockHeaderSize)
	b := bytes.NewBuffer(buf)
	binary.Write(b, binary.LittleEndian, h.Version)
	b.Write(h.PrevBlockHash[:])
	b.Write(h.MerkleRoot[:])
	binary.Write(b, binary.LittleEndian, h.Timestamp)
	binary.Write(b, binary.LittleEndian, h.Bits)
	binary.Write(b, binary.LittleEndian, h.Nonce)
	return b.Bytes()
}

// ParseBlockHeader reads an 80-byte header from buf. Bytes beyond
// offset 80 are ignored, which lets callers hand in an 81-byte headers
// message record directly. When validate is true, the header must
// satisfy the proof-of-work check in Validate or
// ErrHeaderInvalidPoW is returned.
func ParseBlockHeader(buf []byte, validate bool) (*BlockHeader, error) {
	if len(buf) < blockHeaderSize {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}

	p := NewBufferParser(buf[:blockHeaderSize])
	h := &BlockHeader{}

	var err error
	if h.Version, err = p.ExtractI32(); err != nil {
		return nil, err
	}
	prev, err := p.ExtractBuffer(32)
	if err != nil {
		return nil, err
	}
	h.PrevBlockHash = chainhash.Hash(prev)

	root, err := p.ExtractBuffer(32)
	if err != nil {
		return nil, err
	}
	h.MerkleRoot = chainhash.Hash(root)

	if h.Timestamp, err = p.ExtractU32(); err != nil {
		return nil, err
	}
	if h.Bits, err = p.ExtractU32(); err != nil {
		return nil, err
	}
	if h.Nonce, err = p.ExtractU32(); err != nil {
		return nil, err
	}

	if validate && !h.Validate() {
		return nil, spverr.ErrHeaderInvalidPoW
	}

	return h, nil
}

// Hash returns the double-SHA-256 identity of the header, in the same
// internal (little-endian) byte order used throughout this package.
func (h *BlockHeader) Hash() chainhash.Hash {
	first := sha256.Sum256(h.Serialize())
	second := sha256.Sum256(first[:])
	return chainhash.Hash(second)
}

// Validate reports whether the header's hash satisfies the
// proof-of-work target encoded in Bits.
//
// Bits is a base-256 scientific notation: the high byte is the
// exponent E, the low three bytes are the mantissa M (most-significant
// first). Every hash byte at index >= E must be zero, and the three
// bytes at indices E-3..E-1, compared most-significant-first (index
// E-1 down to E-3) against M, must be strictly less at the first
// differing position. Equality across all three mantissa bytes
// rejects: this mirrors the reference implementation's loop exactly,
// including that tie-break.
func (h *BlockHeader) Validate() bool {
	hash := h.Hash()

	bitsBytes := [4]byte{
		byte(h.Bits >> 24), byte(h.Bits >> 16), byte(h.Bits >> 8), byte(h.Bits),
	}
	exponent := int(bitsBytes[0])

	if exponent < 3 || exponent > 32 {
		return false
	}

	for i := exponent; i < 32; i++ {
		if hash[i] != 0 {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		hashByte := hash[exponent-1-i]
		mantissaByte := bitsBytes[1+i]
		if hashByte != mantissaByte {
			return hashByte < mantissaByte
		}
	}

	return false
}
