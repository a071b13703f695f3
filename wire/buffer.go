package wire

import (
	"unicode/utf8"

	"github.com/nyxchain/spvnode/spverr"
)

// maxVarInt caps the decoded value of a CompactSize varint so a
// corrupt or adversarial length prefix can't make callers allocate an
// unreasonable amount of memory before the underlying read fails.
const maxVarInt = 0x02000000

// BufferParser is a cursor over an immutable byte buffer. Every
// extractor advances the cursor and reports failure via an error
// return rather than panicking, the way
// parser/internal/bytestring.String does for Zcash payloads.
type BufferParser struct {
	buf []byte
}

// NewBufferParser wraps buf for sequential extraction. buf is not
// copied; callers should not mutate it afterward.
func NewBufferParser(buf []byte) *BufferParser {
	return &BufferParser{buf: buf}
}

// Len reports the number of unread bytes.
func (p *BufferParser) Len() int {
	return len(p.buf)
}

// IsEmpty reports whether there are no unread bytes left.
func (p *BufferParser) IsEmpty() bool {
	return len(p.buf) == 0
}

// Remaining returns the unread tail without advancing the cursor.
func (p *BufferParser) Remaining() []byte {
	return p.buf
}

func (p *BufferParser) take(n int) ([]byte, error) {
	if len(p.buf) < n {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}
	out := p.buf[:n]
	p.buf = p.buf[n:]
	return out, nil
}

// ExtractBuffer returns the next n bytes as an owned slice, advancing
// the cursor past them.
func (p *BufferParser) ExtractBuffer(n int) ([]byte, error) {
	b, err := p.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ExtractU8 reads one byte.
func (p *BufferParser) ExtractU8() (uint8, error) {
	b, err := p.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ExtractU16 reads a little-endian uint16.
func (p *BufferParser) ExtractU16() (uint16, error) {
	b, err := p.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ExtractU32 reads a little-endian uint32.
func (p *BufferParser) ExtractU32() (uint32, error) {
	b, err := p.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// ExtractI32 reads a little-endian int32.
func (p *BufferParser) ExtractI32() (int32, error) {
	v, err := p.ExtractU32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ExtractU64 reads a little-endian uint64.
func (p *BufferParser) ExtractU64() (uint64, error) {
	b, err := p.take(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// ExtractI64 reads a little-endian int64.
func (p *BufferParser) ExtractI64() (int64, error) {
	v, err := p.ExtractU64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ExtractString reads n bytes and decodes them as UTF-8.
func (p *BufferParser) ExtractString(n int) (string, error) {
	b, err := p.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", spverr.ErrSerializedBufferIsInvalid
	}
	return string(b), nil
}

// ExtractVarInt decodes a Bitcoin CompactSize value: the first byte is
// the value itself unless it is 0xFD/0xFE/0xFF, in which case a
// 2/4/8-byte little-endian follow-on carries the value.
func (p *BufferParser) ExtractVarInt() (uint64, error) {
	prefix, err := p.ExtractU8()
	if err != nil {
		return 0, err
	}

	var v uint64
	switch prefix {
	case 0xFD:
		u, err := p.ExtractU16()
		if err != nil {
			return 0, err
		}
		v = uint64(u)
	case 0xFE:
		u, err := p.ExtractU32()
		if err != nil {
			return 0, err
		}
		v = uint64(u)
	case 0xFF:
		u, err := p.ExtractU64()
		if err != nil {
			return 0, err
		}
		v = u
	default:
		v = uint64(prefix)
	}

	if v > maxVarInt {
		return 0, spverr.ErrSerializedBufferIsInvalid
	}
	return v, nil
}

// VarIntSerialize is implemented by values that encode as a Bitcoin
// CompactSize varint.
type VarIntSerialize interface {
	ToVarIntBytes() []byte
}

// Count is a plain uint64 wrapper so callers can write
// Count(n).ToVarIntBytes() without re-deriving the encoding rule
// inline at every call site.
type Count uint64

// ToVarIntBytes encodes c using the CompactSize rule: values below 253
// are a single byte, otherwise a 0xFD/0xFE/0xFF prefix byte is
// followed by the value in 2/4/8 little-endian bytes.
func (c Count) ToVarIntBytes() []byte {
	v := uint64(c)
	switch {
	case v < 0xFD:
		return []byte{byte(v)}
	case v <= 0xFFFF:
		return []byte{0xFD, byte(v), byte(v >> 8)}
	case v <= 0xFFFFFFFF:
		return []byte{0xFE, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	default:
		return []byte{
			0xFF,
			byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
			byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
		}
	}
}
