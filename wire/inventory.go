package wire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// InventoryType names what an Inventory entry refers to.
type InventoryType uint32

const (
	InvError InventoryType = iota
	InvTx
	InvBlock
	InvFilteredBlock
	InvCompactBlock
	InvWitnessTx
	InvWitnessBlock
)

// Inventory pairs a type with the 32-byte hash it names. Used in inv,
// getdata, and notfound messages.
type Inventory struct {
	Type InventoryType
	Hash chainhash.Hash
}

// NewInventory builds an Inventory pair.
func NewInventory(t InventoryType, hash chainhash.Hash) Inventory {
	return Inventory{Type: t, Hash: hash}
}

func (inv Inventory) serialize() []byte {
	buf := make([]byte, 36)
	buf[0] = byte(inv.Type)
	buf[1] = byte(inv.Type >> 8)
	buf[2] = byte(inv.Type >> 16)
	buf[3] = byte(inv.Type >> 24)
	copy(buf[4:], inv.Hash[:])
	return buf
}

func parseInventory(p *BufferParser) (Inventory, error) {
	t, err := p.ExtractU32()
	if err != nil {
		return Inventory{}, err
	}
	h, err := p.ExtractBuffer(32)
	if err != nil {
		return Inventory{}, err
	}
	return Inventory{Type: InventoryType(t), Hash: chainhash.Hash(h)}, nil
}

func serializeInventoryList(invs []Inventory) []byte {
	buf := make([]byte, 0, 1+len(invs)*36)
	buf = append(buf, Count(len(invs)).ToVarIntBytes()...)
	for _, inv := range invs {
		buf = append(buf, inv.serialize()...)
	}
	return buf
}

func parseInventoryList(p *BufferParser) ([]Inventory, error) {
	count, err := p.ExtractVarInt()
	if err != nil {
		return nil, err
	}
	invs := make([]Inventory, count)
	for i := range invs {
		inv, err := parseInventory(p)
		if err != nil {
			return nil, err
		}
		invs[i] = inv
	}
	return invs, nil
}

// InvMessage announces available objects (blocks or transactions).
type InvMessage struct {
	Inventories []Inventory
}

func (m *InvMessage) Command() string   { return "inv" }
func (m *InvMessage) Serialize() []byte { return serializeInventoryList(m.Inventories) }

// ParseInv decodes an inv message payload.
func ParseInv(payload []byte) (*InvMessage, error) {
	invs, err := parseInventoryList(NewBufferParser(payload))
	if err != nil {
		return nil, err
	}
	return &InvMessage{Inventories: invs}, nil
}

// GetDataMessage requests the full objects named by Inventories.
type GetDataMessage struct {
	Inventories []Inventory
}

func (m *GetDataMessage) Command() string   { return "getdata" }
func (m *GetDataMessage) Serialize() []byte { return serializeInventoryList(m.Inventories) }

// ParseGetData decodes a getdata message payload.
func ParseGetData(payload []byte) (*GetDataMessage, error) {
	invs, err := parseInventoryList(NewBufferParser(payload))
	if err != nil {
		return nil, err
	}
	return &GetDataMessage{Inventories: invs}, nil
}

// NewGetData builds a getdata request for the given inventories.
func NewGetData(invs []Inventory) *GetDataMessage {
	return &GetDataMessage{Inventories: invs}
}

// NotFoundMessage answers a GetData request for objects the peer
// doesn't have, naming the ones it couldn't serve.
type NotFoundMessage struct {
	Inventories []Inventory
}

func (m *NotFoundMessage) Command() string   { return "notfound" }
func (m *NotFoundMessage) Serialize() []byte { return serializeInventoryList(m.Inventories) }

// ParseNotFound decodes a notfound message payload.
func ParseNotFound(payload []byte) (*NotFoundMessage, error) {
	invs, err := parseInventoryList(NewBufferParser(payload))
	if err != nil {
		return nil, err
	}
	return &NotFoundMessage{Inventories: invs}, nil
}
