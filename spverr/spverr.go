// Package spverr collects the error taxonomy shared by the wire codec,
// the header chain validator, the peer stream loop and node state.
package spverr

import "errors"

// Sentinel errors, one per taxonomy kind. Call sites wrap these with
// fmt.Errorf("...: %w", ErrX) or github.com/pkg/errors.Wrap so callers
// can still match with errors.Is while getting call-site context.
var (
	// ErrSerializedBufferIsInvalid covers parser underflow, a bad
	// varint, or any other structural mismatch in a wire payload.
	ErrSerializedBufferIsInvalid = errors.New("serialized buffer is invalid")

	// ErrHeaderInvalidPoW means a block header's hash does not satisfy
	// the target decoded from its bits field.
	ErrHeaderInvalidPoW = errors.New("header fails proof-of-work check")

	// ErrInvalidMerkleRoot means a block's reconstructed merkle root
	// disagrees with the root carried in its header.
	ErrInvalidMerkleRoot = errors.New("block merkle root mismatch")

	// ErrIo covers socket or file errors encountered while framing or
	// persisting data.
	ErrIo = errors.New("i/o error")

	// ErrChannelClosed means a send or receive was attempted against a
	// dropped channel endpoint.
	ErrChannelClosed = errors.New("channel closed")

	// ErrLockPoisoned means a writer panicked while holding NodeState's
	// mutex; the core does not attempt recovery from this.
	ErrLockPoisoned = errors.New("node state lock poisoned")

	// ErrChainBroken means a headers page doesn't chain from the
	// current tip and was rejected in its entirety.
	ErrChainBroken = errors.New("headers page does not chain from tip")
)
