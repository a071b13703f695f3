package peer

import (
	"net"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/nyxchain/spvnode/wire"
)

// pageSize is the headers-page length a getheaders request returns
// when the peer has more to send; receiving exactly this many headers
// means another page must be requested to reach the tip (spec.md
// §4.7).
const pageSize = 2000

// StreamLoop owns one peer connection: it blocks on ReadMessageHeader,
// dispatches on the command, and forwards the result to actions as a
// NodeAction. It never touches node.NodeState directly — all mutation
// goes through the fan-in Consumer on the other end of actions.
type StreamLoop struct {
	conn    net.Conn
	version int32
	magic   uint32
	actions chan<- NodeAction
	log     *logrus.Entry
}

// NewStreamLoop builds a loop over an already-handshaken connection.
func NewStreamLoop(conn net.Conn, magic uint32, version int32, actions chan<- NodeAction, log *logrus.Entry) *StreamLoop {
	return &StreamLoop{conn: conn, version: version, magic: magic, actions: actions, log: log}
}

// Run blocks dispatching messages until the connection errs or closes.
func (l *StreamLoop) Run() error {
	for {
		header, err := wire.ReadMessageHeader(l.conn)
		if err != nil {
			return err
		}

		switch header.Command {
		case "headers":
			if err := l.handleHeaders(header); err != nil {
				return err
			}
		case "block":
			if err := l.handleBlock(header); err != nil {
				return err
			}
		case "ping":
			if err := l.handlePing(header); err != nil {
				return err
			}
		case "notfound":
			if err := l.handleNotFound(header); err != nil {
				return err
			}
		default:
			if err := l.ignoreMessage(header); err != nil {
				return err
			}
		}
	}
}

func (l *StreamLoop) handleHeaders(header *wire.MessageHeader) error {
	payload, err := wire.ReadPayload(l.conn, header)
	if err != nil {
		return err
	}

	msg, err := wire.ParseHeaders(payload)
	if err != nil {
		l.actions <- GetHeadersErrorAction()
		return nil
	}

	if len(msg.Headers) == pageSize {
		last := msg.Headers[len(msg.Headers)-1].Hash()
		if err := l.requestHeaders(last); err != nil {
			return err
		}
	}

	l.actions <- NewHeadersAction(msg)
	return nil
}

func (l *StreamLoop) handleBlock(header *wire.MessageHeader) error {
	payload, err := wire.ReadPayload(l.conn, header)
	if err != nil {
		return err
	}

	block, err := wire.ParseBlock(payload)
	if err != nil {
		return err
	}

	hash := block.Header.Hash()
	if _, err := block.CreateMerkleRoot(); err != nil {
		l.log.WithField("hash", hash).Warn("block failed merkle root validation")
		l.actions <- GetDataErrorAction([]wire.Inventory{wire.NewInventory(wire.InvBlock, hash)})
		return nil
	}

	l.actions <- BlockAction(hash, block)
	return nil
}

func (l *StreamLoop) handlePing(header *wire.MessageHeader) error {
	payload, err := wire.ReadPayload(l.conn, header)
	if err != nil {
		return err
	}
	ping, err := wire.ParsePing(payload)
	if err != nil {
		return err
	}
	pong := &wire.PongMessage{Nonce: ping.Nonce}
	return wire.SendMessage(l.conn, l.magic, pong)
}

func (l *StreamLoop) handleNotFound(header *wire.MessageHeader) error {
	payload, err := wire.ReadPayload(l.conn, header)
	if err != nil {
		return err
	}
	notfound, err := wire.ParseNotFound(payload)
	if err != nil {
		return err
	}
	l.actions <- GetDataErrorAction(notfound.Inventories)
	return nil
}

// ignoreMessage drains a command this node takes no action on.
// alert/addr/inv/sendheaders are expected noise and are dropped
// silently; anything else is logged once before being discarded, so
// an unrecognized command never desyncs the frame boundary.
func (l *StreamLoop) ignoreMessage(header *wire.MessageHeader) error {
	switch header.Command {
	case "alert", "addr", "inv", "sendheaders":
	default:
		l.log.WithField("command", header.Command).Warn("received unknown command")
	}
	return wire.DrainPayload(l.conn, header.PayloadLength)
}

func (l *StreamLoop) requestHeaders(locator chainhash.Hash) error {
	req := wire.NewGetHeaders(l.version, locator)
	return wire.SendMessage(l.conn, l.magic, req)
}

// RetryGetHeaders re-requests a continuation page from tip,
// implementing Retrier for the fan-in consumer.
func (l *StreamLoop) RetryGetHeaders(tip chainhash.Hash) error {
	return l.requestHeaders(tip)
}

// RetryGetData re-requests the objects a peer failed to serve.
func (l *StreamLoop) RetryGetData(inventories []wire.Inventory) error {
	if len(inventories) == 0 {
		return nil
	}
	req := wire.NewGetData(inventories)
	return wire.SendMessage(l.conn, l.magic, req)
}
