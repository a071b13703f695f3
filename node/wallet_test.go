package node

import "testing"

func TestWalletSerializeRoundTrip(t *testing.T) {
	w := NewWallet("primary", "02abcd", "deadbeef")
	buf := w.Serialize()

	wallets, err := ParseWallets(buf)
	if err != nil {
		t.Fatalf("ParseWallets: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("got %d wallets, want 1", len(wallets))
	}
	got := wallets[0]
	if got.Name != w.Name || got.PubKey != w.PubKey || got.PrivKey != w.PrivKey {
		t.Fatalf("round-tripped wallet %+v, want %+v", got, w)
	}
}

func TestParseWalletsConcatenated(t *testing.T) {
	a := NewWallet("a", "aa", "11")
	b := NewWallet("b", "bb", "22")

	buf := append(a.Serialize(), b.Serialize()...)
	wallets, err := ParseWallets(buf)
	if err != nil {
		t.Fatalf("ParseWallets: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("got %d wallets, want 2", len(wallets))
	}
	if wallets[0].Name != "a" || wallets[1].Name != "b" {
		t.Fatalf("wallets out of order: %+v", wallets)
	}
}

func TestParseWalletsTruncated(t *testing.T) {
	w := NewWallet("primary", "02abcd", "deadbeef")
	buf := w.Serialize()

	if _, err := ParseWallets(buf[:len(buf)-2]); err == nil {
		t.Fatal("expected error on truncated wallet record")
	}
}
