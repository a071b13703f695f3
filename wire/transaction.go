package wire

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nyxchain/spvnode/spverr"
)

// TxOutput is a transaction output: an amount in satoshis and the
// locking script that must be satisfied to spend it.
type TxOutput struct {
	Value  int64
	Script []byte
}

// TxInput spends a previous output, named by its outpoint.
type TxInput struct {
	PrevTxHash     chainhash.Hash
	PrevTxOutIndex uint32
	ScriptSig      []byte
	Sequence       uint32
}

// Outpoint names a spendable output: the hash of the transaction that
// created it and its index within that transaction's output list.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Transaction is a minimal Bitcoin transaction: enough structure to
// reconstruct a block's merkle root and to scan outputs/inputs against
// a wallet's public key (spec.md §4.6), without script execution.
type Transaction struct {
	Version  int32
	Inputs   []*TxInput
	Outputs  []*TxOutput
	LockTime uint32

	raw []byte
}

func (tx *Transaction) serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, tx.Version)
	buf.Write(Count(len(tx.Inputs)).ToVarIntBytes())
	for _, in := range tx.Inputs {
		buf.Write(in.PrevTxHash[:])
		binary.Write(buf, binary.LittleEndian, in.PrevTxOutIndex)
		buf.Write(Count(len(in.ScriptSig)).ToVarIntBytes())
		buf.Write(in.ScriptSig)
		binary.Write(buf, binary.LittleEndian, in.Sequence)
	}
	buf.Write(Count(len(tx.Outputs)).ToVarIntBytes())
	for _, out := range tx.Outputs {
		binary.Write(buf, binary.LittleEndian, out.Value)
		buf.Write(Count(len(out.Script)).ToVarIntBytes())
		buf.Write(out.Script)
	}
	binary.Write(buf, binary.LittleEndian, tx.LockTime)
	return buf.Bytes()
}

// Hash returns the transaction identifier: double-SHA-256 of its
// consensus serialization.
func (tx *Transaction) Hash() chainhash.Hash {
	raw := tx.raw
	if raw == nil {
		raw = tx.serialize()
	}
	first := sha256.Sum256(raw)
	second := sha256.Sum256(first[:])
	return chainhash.Hash(second)
}

// parseTransaction decodes one transaction starting at the front of
// p, returning it and leaving p positioned just past it.
func parseTransaction(p *BufferParser) (*Transaction, error) {
	start := p.Remaining()

	tx := &Transaction{}
	var err error
	if tx.Version, err = p.ExtractI32(); err != nil {
		return nil, err
	}

	inCount, err := p.ExtractVarInt()
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*TxInput, inCount)
	for i := range tx.Inputs {
		in := &TxInput{}
		prevHash, err := p.ExtractBuffer(32)
		if err != nil {
			return nil, err
		}
		in.PrevTxHash = chainhash.Hash(prevHash)
		if in.PrevTxOutIndex, err = p.ExtractU32(); err != nil {
			return nil, err
		}
		scriptLen, err := p.ExtractVarInt()
		if err != nil {
			return nil, err
		}
		if in.ScriptSig, err = p.ExtractBuffer(int(scriptLen)); err != nil {
			return nil, err
		}
		if in.Sequence, err = p.ExtractU32(); err != nil {
			return nil, err
		}
		tx.Inputs[i] = in
	}

	outCount, err := p.ExtractVarInt()
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*TxOutput, outCount)
	for i := range tx.Outputs {
		out := &TxOutput{}
		value, err := p.ExtractI64()
		if err != nil {
			return nil, err
		}
		out.Value = value
		scriptLen, err := p.ExtractVarInt()
		if err != nil {
			return nil, err
		}
		if out.Script, err = p.ExtractBuffer(int(scriptLen)); err != nil {
			return nil, err
		}
		tx.Outputs[i] = out
	}

	if tx.LockTime, err = p.ExtractU32(); err != nil {
		return nil, err
	}

	consumed := len(start) - p.Len()
	tx.raw = start[:consumed]

	return tx, nil
}

// ParseTransaction decodes a single standalone transaction buffer,
// failing if any unconsumed bytes remain.
func ParseTransaction(buf []byte) (*Transaction, error) {
	p := NewBufferParser(buf)
	tx, err := parseTransaction(p)
	if err != nil {
		return nil, err
	}
	if !p.IsEmpty() {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}
	return tx, nil
}
