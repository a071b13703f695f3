package wire

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/nyxchain/spvnode/spverr"
)

// commandSize is the fixed width of the ASCII command field, NUL-padded.
const commandSize = 12

// headerSize is the 24-byte frame: 4-byte magic + 12-byte command +
// 4-byte payload length + 4-byte checksum.
const headerSize = 4 + commandSize + 4 + 4

// Message is implemented by every concrete wire message body. A
// tagged-variant dispatch on Command (rather than an interface value
// carrying a vtable per frame) is used by callers that need
// exhaustiveness, per spec.md's preference for a sum-type shape; this
// interface exists so the framing helpers below stay generic.
type Message interface {
	Command() string
	Serialize() []byte
}

// MessageHeader is the 24-byte frame preceding every message payload.
type MessageHeader struct {
	Magic         uint32
	Command       string
	PayloadLength uint32
	Checksum      [4]byte
}

func checksum(payload []byte) [4]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	var out [4]byte
	copy(out[:], second[:4])
	return out
}

func padCommand(cmd string) []byte {
	b := make([]byte, commandSize)
	copy(b, cmd)
	return b
}

func trimCommand(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		i = len(b)
	}
	return string(b[:i])
}

// ReadMessageHeader reads and parses the next 24-byte frame from r.
func ReadMessageHeader(r io.Reader) (*MessageHeader, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(spverr.ErrIo, err.Error())
	}

	p := NewBufferParser(buf)
	magic, err := p.ExtractU32()
	if err != nil {
		return nil, err
	}
	cmdBytes, err := p.ExtractBuffer(commandSize)
	if err != nil {
		return nil, err
	}
	length, err := p.ExtractU32()
	if err != nil {
		return nil, err
	}
	sumBytes, err := p.ExtractBuffer(4)
	if err != nil {
		return nil, err
	}

	h := &MessageHeader{
		Magic:         magic,
		Command:       trimCommand(cmdBytes),
		PayloadLength: length,
	}
	copy(h.Checksum[:], sumBytes)
	return h, nil
}

// SendMessage frames m (network magic, command, payload length and
// checksum) and writes it to w.
func SendMessage(w io.Writer, magic uint32, m Message) error {
	payload := m.Serialize()

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, magic)
	buf.Write(padCommand(m.Command()))
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	sum := checksum(payload)
	buf.Write(sum[:])
	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(spverr.ErrIo, err.Error())
	}
	return nil
}

// ReadPayload reads exactly payloadSize bytes from r and validates
// them against the checksum carried in header, per spec.md's
// resolution of the checksum open question: mismatch is reported as
// ErrSerializedBufferIsInvalid rather than silently accepted.
func ReadPayload(r io.Reader, header *MessageHeader) ([]byte, error) {
	buf := make([]byte, header.PayloadLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(spverr.ErrIo, err.Error())
	}
	if checksum(buf) != header.Checksum {
		return nil, spverr.ErrSerializedBufferIsInvalid
	}
	return buf, nil
}

// DrainPayload discards payloadSize bytes from r without validating
// them, for commands this node parses only to the extent of not
// getting out of frame sync with the stream.
func DrainPayload(r io.Reader, payloadSize uint32) error {
	_, err := io.CopyN(io.Discard, r, int64(payloadSize))
	if err != nil {
		return errors.Wrap(spverr.ErrIo, err.Error())
	}
	return nil
}
