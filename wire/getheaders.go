package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// GetHeadersMessage requests a continuation page of headers starting
// just after the last locator hash the peer recognizes.
type GetHeadersMessage struct {
	Version       int32
	LocatorHashes []chainhash.Hash
	HashStop      chainhash.Hash
}

func (m *GetHeadersMessage) Command() string { return "getheaders" }

func (m *GetHeadersMessage) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Version)
	buf.Write(Count(len(m.LocatorHashes)).ToVarIntBytes())
	for _, h := range m.LocatorHashes {
		buf.Write(h[:])
	}
	buf.Write(m.HashStop[:])
	return buf.Bytes()
}

// ParseGetHeaders decodes a getheaders payload.
func ParseGetHeaders(payload []byte) (*GetHeadersMessage, error) {
	p := NewBufferParser(payload)
	m := &GetHeadersMessage{}

	var err error
	if m.Version, err = p.ExtractI32(); err != nil {
		return nil, err
	}
	count, err := p.ExtractVarInt()
	if err != nil {
		return nil, err
	}
	m.LocatorHashes = make([]chainhash.Hash, count)
	for i := range m.LocatorHashes {
		b, err := p.ExtractBuffer(32)
		if err != nil {
			return nil, err
		}
		m.LocatorHashes[i] = chainhash.Hash(b)
	}
	stop, err := p.ExtractBuffer(32)
	if err != nil {
		return nil, err
	}
	m.HashStop = chainhash.Hash(stop)

	return m, nil
}

// NewGetHeaders builds a getheaders request continuing from locator,
// the hash of the last header of a prior page (spec.md §4.7's
// continuation rule).
func NewGetHeaders(protocolVersion int32, locator chainhash.Hash) *GetHeadersMessage {
	return &GetHeadersMessage{
		Version:       protocolVersion,
		LocatorHashes: []chainhash.Hash{locator},
	}
}
