package node

import (
	"github.com/nyxchain/spvnode/spverr"
	"github.com/nyxchain/spvnode/wire"
)

// Wallet is the single name/pubkey/privkey triple this node tracks
// balances and pending transactions for. Multi-wallet HD derivation is
// out of scope (spec.md §1's Non-goals).
type Wallet struct {
	Name    string
	PubKey  string
	PrivKey string
}

// NewWallet builds a wallet record.
func NewWallet(name, pubkey, privkey string) *Wallet {
	return &Wallet{Name: name, PubKey: pubkey, PrivKey: privkey}
}

// Serialize encodes the wallet as three length-prefixed byte strings:
// u8 length followed by that many bytes, for name, pubkey, privkey in
// turn.
func (w *Wallet) Serialize() []byte {
	buf := make([]byte, 0, 3+len(w.Name)+len(w.PubKey)+len(w.PrivKey))
	buf = append(buf, byte(len(w.Name)))
	buf = append(buf, w.Name...)
	buf = append(buf, byte(len(w.PubKey)))
	buf = append(buf, w.PubKey...)
	buf = append(buf, byte(len(w.PrivKey)))
	buf = append(buf, w.PrivKey...)
	return buf
}

// ParseWallets decodes a concatenation of wallet records from a
// wallet file buffer, failing if a length prefix claims more bytes
// than remain.
func ParseWallets(buf []byte) ([]*Wallet, error) {
	p := wire.NewBufferParser(buf)

	var wallets []*Wallet
	for !p.IsEmpty() {
		nameLen, err := p.ExtractU8()
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}
		name, err := p.ExtractString(int(nameLen))
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}

		pubLen, err := p.ExtractU8()
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}
		pubkey, err := p.ExtractString(int(pubLen))
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}

		privLen, err := p.ExtractU8()
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}
		privkey, err := p.ExtractString(int(privLen))
		if err != nil {
			return nil, spverr.ErrSerializedBufferIsInvalid
		}

		wallets = append(wallets, NewWallet(name, pubkey, privkey))
	}
	return wallets, nil
}
