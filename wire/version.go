package wire

import (
	"bytes"
	"encoding/binary"
	"time"
)

// VersionMessage is the handshake announcement every peer sends first.
// The handshake parses the peer's version message but inspects none
// of its fields; every field is still round-tripped so Serialize/Parse
// stay exact inverses per spec.md's codec round-trip invariant.
type VersionMessage struct {
	Version     int32
	Services    uint64
	Timestamp   int64
	AddrRecvSvc uint64
	AddrRecvIP  [16]byte
	AddrRecvPt  uint16
	AddrFromSvc uint64
	AddrFromIP  [16]byte
	AddrFromPt  uint16
	Nonce       uint64
	UserAgent   string
	StartHeight int32
	Relay       bool
}

func (m *VersionMessage) Command() string { return "version" }

func (m *VersionMessage) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Version)
	binary.Write(buf, binary.LittleEndian, m.Services)
	binary.Write(buf, binary.LittleEndian, m.Timestamp)
	binary.Write(buf, binary.LittleEndian, m.AddrRecvSvc)
	buf.Write(m.AddrRecvIP[:])
	binary.Write(buf, binary.BigEndian, m.AddrRecvPt)
	binary.Write(buf, binary.LittleEndian, m.AddrFromSvc)
	buf.Write(m.AddrFromIP[:])
	binary.Write(buf, binary.BigEndian, m.AddrFromPt)
	binary.Write(buf, binary.LittleEndian, m.Nonce)
	buf.Write(Count(len(m.UserAgent)).ToVarIntBytes())
	buf.WriteString(m.UserAgent)
	binary.Write(buf, binary.LittleEndian, m.StartHeight)
	relay := byte(0)
	if m.Relay {
		relay = 1
	}
	buf.WriteByte(relay)
	return buf.Bytes()
}

// ParseVersion decodes a version message payload.
func ParseVersion(payload []byte) (*VersionMessage, error) {
	p := NewBufferParser(payload)
	m := &VersionMessage{}

	var err error
	if m.Version, err = p.ExtractI32(); err != nil {
		return nil, err
	}
	if m.Services, err = p.ExtractU64(); err != nil {
		return nil, err
	}
	if m.Timestamp, err = p.ExtractI64(); err != nil {
		return nil, err
	}
	if m.AddrRecvSvc, err = p.ExtractU64(); err != nil {
		return nil, err
	}
	recvIP, err := p.ExtractBuffer(16)
	if err != nil {
		return nil, err
	}
	copy(m.AddrRecvIP[:], recvIP)
	recvPt, err := p.ExtractBuffer(2)
	if err != nil {
		return nil, err
	}
	m.AddrRecvPt = uint16(recvPt[0])<<8 | uint16(recvPt[1])
	if m.AddrFromSvc, err = p.ExtractU64(); err != nil {
		return nil, err
	}
	fromIP, err := p.ExtractBuffer(16)
	if err != nil {
		return nil, err
	}
	copy(m.AddrFromIP[:], fromIP)
	fromPt, err := p.ExtractBuffer(2)
	if err != nil {
		return nil, err
	}
	m.AddrFromPt = uint16(fromPt[0])<<8 | uint16(fromPt[1])
	if m.Nonce, err = p.ExtractU64(); err != nil {
		return nil, err
	}
	uaLen, err := p.ExtractVarInt()
	if err != nil {
		return nil, err
	}
	if m.UserAgent, err = p.ExtractString(int(uaLen)); err != nil {
		return nil, err
	}
	if m.StartHeight, err = p.ExtractI32(); err != nil {
		return nil, err
	}
	relay, err := p.ExtractU8()
	if err != nil {
		return nil, err
	}
	m.Relay = relay != 0

	return m, nil
}

// NewVersionMessage builds a version announcement for dialing a peer.
func NewVersionMessage(protocolVersion int32, services uint64, userAgent string, startHeight int32) *VersionMessage {
	return &VersionMessage{
		Version:     protocolVersion,
		Services:    services,
		Timestamp:   time.Now().Unix(),
		AddrRecvSvc: services,
		Nonce:       0,
		UserAgent:   userAgent,
		StartHeight: startHeight,
		Relay:       true,
	}
}

// VerAckMessage acknowledges a Version handshake. It carries no payload.
type VerAckMessage struct{}

func (m *VerAckMessage) Command() string  { return "verack" }
func (m *VerAckMessage) Serialize() []byte { return nil }

// ParseVerAck always succeeds; verack carries no payload.
func ParseVerAck([]byte) (*VerAckMessage, error) {
	return &VerAckMessage{}, nil
}
