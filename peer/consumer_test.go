package peer

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/nyxchain/spvnode/node"
	"github.com/nyxchain/spvnode/wire"
)

type fakeRetrier struct {
	gotHeadersTip chainhash.Hash
	headersCalls  int
	dataCalls     int
	lastData      []wire.Inventory
}

func (f *fakeRetrier) RetryGetHeaders(tip chainhash.Hash) error {
	f.gotHeadersTip = tip
	f.headersCalls++
	return nil
}

func (f *fakeRetrier) RetryGetData(inventories []wire.Inventory) error {
	f.dataCalls++
	f.lastData = inventories
	return nil
}

func discardEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l.WithField("test", true)
}

type fakePersister struct {
	startHeights []int
	stored       []*wire.BlockHeader
}

func (f *fakePersister) StoreHeaders(startHeight int, headers []*wire.BlockHeader) error {
	f.startHeights = append(f.startHeights, startHeight)
	f.stored = append(f.stored, headers...)
	return nil
}

func TestConsumerAppliesNewHeaders(t *testing.T) {
	state := node.New()
	consumer := NewConsumer(state, discardEntry(), nil)

	actions := make(chan NodeAction, 1)
	retry := &fakeRetrier{}

	h := &wire.BlockHeader{Version: 1}
	actions <- NewHeadersAction(&wire.HeadersMessage{Headers: []*wire.BlockHeader{h}})
	close(actions)

	consumer.Run(actions, retry)

	if state.Height() != 1 {
		t.Fatalf("got height %d, want 1", state.Height())
	}
}

func TestConsumerPersistsAcceptedHeaders(t *testing.T) {
	state := node.New()
	persist := &fakePersister{}
	consumer := NewConsumer(state, discardEntry(), persist)

	actions := make(chan NodeAction, 1)
	retry := &fakeRetrier{}

	h := &wire.BlockHeader{Version: 1}
	actions <- NewHeadersAction(&wire.HeadersMessage{Headers: []*wire.BlockHeader{h}})
	close(actions)

	consumer.Run(actions, retry)

	if len(persist.stored) != 1 || persist.stored[0] != h {
		t.Fatalf("got stored headers %+v, want the accepted page", persist.stored)
	}
	if len(persist.startHeights) != 1 || persist.startHeights[0] != 0 {
		t.Fatalf("got start heights %v, want [0]", persist.startHeights)
	}
}

func TestConsumerRetriesOnGetHeadersError(t *testing.T) {
	state := node.New()
	consumer := NewConsumer(state, discardEntry(), nil)

	actions := make(chan NodeAction, 1)
	retry := &fakeRetrier{}

	actions <- GetHeadersErrorAction()
	close(actions)

	consumer.Run(actions, retry)

	if retry.headersCalls != 1 {
		t.Fatalf("got %d RetryGetHeaders calls, want 1", retry.headersCalls)
	}
}

func TestConsumerRetriesOnGetDataError(t *testing.T) {
	state := node.New()
	consumer := NewConsumer(state, discardEntry(), nil)

	actions := make(chan NodeAction, 1)
	retry := &fakeRetrier{}

	inv := wire.NewInventory(wire.InvBlock, chainhash.Hash{0x01})
	actions <- GetDataErrorAction([]wire.Inventory{inv})
	close(actions)

	consumer.Run(actions, retry)

	if retry.dataCalls != 1 {
		t.Fatalf("got %d RetryGetData calls, want 1", retry.dataCalls)
	}
	if len(retry.lastData) != 1 || retry.lastData[0].Hash != inv.Hash {
		t.Fatalf("unexpected retried inventories %+v", retry.lastData)
	}
}

func TestConsumerReturnsAfterBlockAction(t *testing.T) {
	state := node.New()
	consumer := NewConsumer(state, discardEntry(), nil)

	actions := make(chan NodeAction, 1)
	retry := &fakeRetrier{}

	header := &wire.BlockHeader{Version: 1}
	block := &wire.Block{Header: header}
	actions <- BlockAction(header.Hash(), block)
	close(actions)

	done := make(chan struct{})
	go func() {
		consumer.Run(actions, retry)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consumer.Run did not return after channel close")
	}
}
