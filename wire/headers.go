package wire

import (
	"github.com/nyxchain/spvnode/spverr"
)

// headerRecordSize is the 81-byte on-wire record for one header inside
// a headers message: 80 header bytes plus a trailing varint-encoded
// transaction count, always zero for this message type.
const headerRecordSize = blockHeaderSize + 1

// HeadersMessage is an ordered page of block headers, as returned in
// response to a GetHeaders request.
type HeadersMessage struct {
	Headers []*BlockHeader
}

func (m *HeadersMessage) Command() string { return "headers" }

// Serialize writes the varint count followed by each header's 80
// bytes and a trailing zero transaction-count byte.
func (m *HeadersMessage) Serialize() []byte {
	buf := make([]byte, 0, 1+len(m.Headers)*headerRecordSize)
	buf = append(buf, Count(len(m.Headers)).ToVarIntBytes()...)
	for _, h := range m.Headers {
		buf = append(buf, h.Serialize()...)
		buf = append(buf, 0x00)
	}
	return buf
}

// ParseHeaders decodes a headers message payload: a varint count, then
// that many 81-byte records, each validated for proof-of-work. The
// tail must be an exact multiple of 81 bytes.
func ParseHeaders(payload []byte) (*HeadersMessage, error) {
	p := NewBufferParser(payload)

	if _, err := p.ExtractVarInt(); err != nil {
		return nil, err
	}
	if p.Len()%headerRecordSize != 0 {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}

	m := &HeadersMessage{}
	for p.Len() >= headerRecordSize {
		record, err := p.ExtractBuffer(headerRecordSize)
		if err != nil {
			return nil, err
		}
		h, err := ParseBlockHeader(record, true)
		if err != nil {
			return nil, err
		}
		m.Headers = append(m.Headers, h)
	}

	return m, nil
}

// ParseHeadersFile decodes a bare concatenation of 80-byte header
// records with no framing or varint prefix, the on-disk headers-file
// format from spec.md §6. PoW is not validated here; see spec.md's
// header round-trip invariant, which requires Parse(Serialize)
// regardless of validity.
func ParseHeadersFile(buf []byte) ([]*BlockHeader, error) {
	if len(buf)%blockHeaderSize != 0 {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}

	p := NewBufferParser(buf)
	var headers []*BlockHeader
	for !p.IsEmpty() {
		record, err := p.ExtractBuffer(blockHeaderSize)
		if err != nil {
			return nil, err
		}
		h, err := ParseBlockHeader(record, false)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}
