package node

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nyxchain/spvnode/wire"
)

// buildRawTx encodes a single-input, single-output transaction exactly
// as Transaction.serialize would, so wire.ParseTransaction can recover
// a *wire.Transaction whose Hash() is well-defined.
func buildRawTx(t *testing.T, prevHash chainhash.Hash, prevIndex uint32, outValue int64, outScript []byte) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(1))

	buf.Write(wire.Count(1).ToVarIntBytes())
	buf.Write(prevHash[:])
	binary.Write(buf, binary.LittleEndian, prevIndex)
	buf.Write(wire.Count(0).ToVarIntBytes())
	binary.Write(buf, binary.LittleEndian, uint32(0xffffffff))

	buf.Write(wire.Count(1).ToVarIntBytes())
	binary.Write(buf, binary.LittleEndian, outValue)
	buf.Write(wire.Count(len(outScript)).ToVarIntBytes())
	buf.Write(outScript)

	binary.Write(buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

func sampleBlockHeader(t *testing.T, prev chainhash.Hash) *wire.BlockHeader {
	t.Helper()
	h := &wire.BlockHeader{
		Version:       1,
		PrevBlockHash: prev,
		Timestamp:     1231006505,
		Bits:          0x1d00ffff,
		Nonce:         2083236893,
	}
	return h
}

func TestAppendHeadersRejectsBrokenChain(t *testing.T) {
	s := New()

	h1 := sampleBlockHeader(t, chainhash.Hash{})
	h2 := sampleBlockHeader(t, chainhash.Hash{0x01})

	if err := s.AppendHeaders([]*wire.BlockHeader{h1, h2}); err == nil {
		t.Fatal("expected chain-contiguity error for a page that doesn't chain")
	}
	if s.Height() != 0 {
		t.Fatalf("rejected page must not partially apply, got height %d", s.Height())
	}
}

func TestAppendHeadersAcceptsContiguousPage(t *testing.T) {
	s := New()

	h1 := sampleBlockHeader(t, chainhash.Hash{})
	h2 := sampleBlockHeader(t, h1.Hash())

	if err := s.AppendHeaders([]*wire.BlockHeader{h1, h2}); err != nil {
		t.Fatalf("AppendHeaders: %v", err)
	}
	if s.Height() != 2 {
		t.Fatalf("got height %d, want 2", s.Height())
	}
	if s.Tip() != h2.Hash() {
		t.Fatal("tip does not match last header in the page")
	}
	if s.HeaderByHash(h1.Hash()) != h1 {
		t.Fatal("HeaderByHash did not find the first header")
	}
}

func TestApplyBlockTracksConfirmedBalanceAcrossBlocks(t *testing.T) {
	s := New()
	pubkey := "02abcdef"
	s.SetWallet(NewWallet("primary", pubkey, ""))

	pubkeyBytes, err := hex.DecodeString(pubkey)
	if err != nil {
		t.Fatalf("decoding test pubkey: %v", err)
	}
	fundingTxRaw := buildRawTx(t, chainhash.Hash{}, 0, 5000, pubkeyBytes)
	fundingTx, err := wire.ParseTransaction(fundingTxRaw)
	if err != nil {
		t.Fatalf("ParseTransaction(funding): %v", err)
	}

	header1 := sampleBlockHeader(t, chainhash.Hash{})
	block1 := &wire.Block{Header: header1, Transactions: []*wire.Transaction{fundingTx}}
	s.ApplyBlock(block1)

	if got := s.GetBalance(); got != 5000 {
		t.Fatalf("balance after funding block = %d, want 5000", got)
	}

	spendingTxRaw := buildRawTx(t, fundingTx.Hash(), 0, 1000, []byte("someone-else"))
	spendingTx, err := wire.ParseTransaction(spendingTxRaw)
	if err != nil {
		t.Fatalf("ParseTransaction(spending): %v", err)
	}

	header2 := sampleBlockHeader(t, header1.Hash())
	block2 := &wire.Block{Header: header2, Transactions: []*wire.Transaction{spendingTx}}
	s.ApplyBlock(block2)

	if got := s.GetBalance(); got != 0 {
		t.Fatalf("balance after spend in a later block = %d, want 0", got)
	}
}

func TestRecordPendingThenConfirmClearsPending(t *testing.T) {
	s := New()
	pubkey := "02aaaa"
	s.SetWallet(NewWallet("primary", pubkey, ""))

	pubkeyBytes, err := hex.DecodeString(pubkey)
	if err != nil {
		t.Fatalf("decoding test pubkey: %v", err)
	}
	txRaw := buildRawTx(t, chainhash.Hash{}, 0, 2500, pubkeyBytes)
	tx, err := wire.ParseTransaction(txRaw)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}

	s.RecordPending(tx)
	pending := s.GetPendingTxFromWallet()
	if len(pending) != 1 {
		t.Fatalf("got %d pending entries, want 1", len(pending))
	}

	header := sampleBlockHeader(t, chainhash.Hash{})
	block := &wire.Block{Header: header, Transactions: []*wire.Transaction{tx}}
	s.ApplyBlock(block)

	if got := s.GetBalance(); got != 2500 {
		t.Fatalf("balance after confirmation = %d, want 2500", got)
	}
	if len(s.GetPendingTxFromWallet()) != 0 {
		t.Fatal("confirmed output should have been cleared from pending")
	}
}
