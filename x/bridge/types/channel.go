package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// Channel is the asynchronous point-to-point delivery primitive connecting
// the two ledgers. Delivery is at-least-once, unordered across independent
// sends, and may be arbitrarily delayed; fees are paid in the sender ledger's
// native asset.
type Channel interface {
	// QuoteFee prices delivery of payload to receiver on destChain with the
	// given destination gas budget.
	QuoteFee(ctx context.Context, destChain uint32, receiver, payload []byte, gasLimit uint64) (sdkmath.Int, error)

	// Send enqueues payload for delivery and returns the assigned message id.
	// The attached fee must cover the current quote.
	Send(ctx context.Context, destChain uint32, receiver, payload []byte, gasLimit uint64, fee sdkmath.Int) (string, error)
}

// InboundHandler is implemented by every component that accepts messages off
// the channel. Handlers own their duplicate suppression: the channel may
// invoke a handler more than once for the same message id.
type InboundHandler interface {
	OnMessage(ctx context.Context, msgID string, srcChain uint32, sender, payload []byte) error
}

// Envelope is a message in flight.
type Envelope struct {
	ID        string `json:"id"`
	SrcChain  uint32 `json:"src_chain"`
	Sender    []byte `json:"sender"`
	DestChain uint32 `json:"dest_chain"`
	Receiver  []byte `json:"receiver"`
	Payload   []byte `json:"payload"`
	Attempts  int    `json:"attempts"`
}
