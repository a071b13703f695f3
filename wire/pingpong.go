package wire

import (
	"bytes"
	"encoding/binary"
)

// PingMessage is a liveness probe carrying an arbitrary nonce that
// must be echoed back in a Pong.
type PingMessage struct {
	Nonce uint64
}

func (m *PingMessage) Command() string { return "ping" }

func (m *PingMessage) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Nonce)
	return buf.Bytes()
}

// ParsePing decodes a ping payload (8 little-endian nonce bytes).
func ParsePing(payload []byte) (*PingMessage, error) {
	p := NewBufferParser(payload)
	nonce, err := p.ExtractU64()
	if err != nil {
		return nil, err
	}
	return &PingMessage{Nonce: nonce}, nil
}

// PongMessage answers a Ping, carrying the same nonce.
type PongMessage struct {
	Nonce uint64
}

func (m *PongMessage) Command() string { return "pong" }

func (m *PongMessage) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Nonce)
	return buf.Bytes()
}

// ParsePong decodes a pong payload.
func ParsePong(payload []byte) (*PongMessage, error) {
	p := NewBufferParser(payload)
	nonce, err := p.ExtractU64()
	if err != nil {
		return nil, err
	}
	return &PongMessage{Nonce: nonce}, nil
}
