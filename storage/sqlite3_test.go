package storage

import (
	"testing"

	"github.com/nyxchain/spvnode/node"
	"github.com/nyxchain/spvnode/wire"
)

func sampleHeader(t *testing.T) *wire.BlockHeader {
	t.Helper()
	buf := []byte{
		1, 0, 0, 0, 5, 159, 141, 74, 195, 4, 19, 253, 127, 1, 148, 149, 222, 143, 237, 24, 27,
		124, 186, 34, 123, 241, 216, 166, 203, 239, 86, 108, 0, 0, 0, 0, 233, 233, 109, 115,
		249, 241, 6, 200, 176, 73, 10, 24, 28, 209, 102, 159, 255, 179, 239, 72, 185, 225, 10,
		14, 219, 74, 174, 208, 207, 59, 18, 12, 170, 7, 195, 79, 255, 255, 0, 29, 14, 171, 58,
		61,
	}
	h, err := wire.ParseBlockHeader(buf, true)
	if err != nil {
		t.Fatalf("ParseBlockHeader: %v", err)
	}
	return h
}

func TestStoreAndLoadHeaders(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := sampleHeader(t)
	if err := store.StoreHeaders(0, []*wire.BlockHeader{h}); err != nil {
		t.Fatalf("StoreHeaders: %v", err)
	}

	loaded, err := store.LoadHeaders()
	if err != nil {
		t.Fatalf("LoadHeaders: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d headers, want 1", len(loaded))
	}
	if loaded[0].Hash() != h.Hash() {
		t.Fatal("loaded header hash does not match stored header")
	}
}

func TestStoreHeadersIsReplaceable(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := sampleHeader(t)
	if err := store.StoreHeaders(0, []*wire.BlockHeader{h}); err != nil {
		t.Fatalf("first StoreHeaders: %v", err)
	}
	if err := store.StoreHeaders(0, []*wire.BlockHeader{h}); err != nil {
		t.Fatalf("second StoreHeaders: %v", err)
	}

	loaded, err := store.LoadHeaders()
	if err != nil {
		t.Fatalf("LoadHeaders: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d headers after re-storing the same height, want 1", len(loaded))
	}
}

func TestStoreAndLoadWallets(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	w := node.NewWallet("primary", "02abcd", "deadbeef")
	if err := store.StoreWallet(w); err != nil {
		t.Fatalf("StoreWallet: %v", err)
	}

	wallets, err := store.LoadWallets()
	if err != nil {
		t.Fatalf("LoadWallets: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("got %d wallets, want 1", len(wallets))
	}
	if wallets[0].Name != w.Name || wallets[0].PubKey != w.PubKey || wallets[0].PrivKey != w.PrivKey {
		t.Fatalf("loaded wallet %+v does not match stored wallet %+v", wallets[0], w)
	}
}
