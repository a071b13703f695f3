package node

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// scriptMatchesWallet reports whether script pays the given pubkey,
// either directly (pay-to-pubkey) or via its hash160 (pay-to-pubkey-hash).
// Full script evaluation is out of scope (spec.md §1); this is the
// address-matching the core needs to maintain a wallet's balance.
func scriptMatchesWallet(script []byte, pubkeyHex string) bool {
	pubkey, err := hex.DecodeString(pubkeyHex)
	if err != nil || len(pubkey) == 0 {
		return false
	}

	if bytes.Contains(script, pubkey) {
		return true
	}

	hash160 := btcutil.Hash160(pubkey)
	return bytes.Contains(script, hash160)
}

// DisplayAddress derives a base58 P2PKH address from a wallet's
// public key, for log lines only; the core never branches on it.
func DisplayAddress(pubkeyHex string, params *chaincfg.Params) (string, error) {
	pubkey, err := hex.DecodeString(pubkeyHex)
	if err != nil {
		return "", err
	}
	addr, err := btcutil.NewAddressPubKey(pubkey, params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
