// Package bridge implements the message channel the protocol components use
// to reach each other across ledgers.
package bridge

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/defiguardian/guardian/x/bridge/types"
)

// FeeConfig prices delivery toward one destination chain.
type FeeConfig struct {
	BaseFee  sdkmath.Int `json:"base_fee"`
	GasPrice sdkmath.Int `json:"gas_price"`
}

// LocalChannel is an in-process channel connecting the two ledgers of a
// deployment. It preserves the transport semantics the components are written
// against: at-least-once delivery (Redeliver), no ordering guarantee across
// sends (DeliverNext is per-destination), and fee metering on send.
//
// State is in-memory and ephemeral. The channel is the boundary of the
// system; nothing on either ledger depends on its persistence.
type LocalChannel struct {
	logger log.Logger

	mu       sync.Mutex
	fees     map[uint32]FeeConfig
	handlers map[string]types.InboundHandler
	pending  []types.Envelope
	history  map[string]types.Envelope
	FeesPaid sdkmath.Int
}

// NewLocalChannel creates an empty channel.
func NewLocalChannel(logger log.Logger) *LocalChannel {
	return &LocalChannel{
		logger:   logger,
		fees:     make(map[uint32]FeeConfig),
		handlers: make(map[string]types.InboundHandler),
		history:  make(map[string]types.Envelope),
		FeesPaid: sdkmath.ZeroInt(),
	}
}

// SetFeeConfig installs the fee schedule for one destination chain.
func (c *LocalChannel) SetFeeConfig(destChain uint32, cfg FeeConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fees[destChain] = cfg
}

// RegisterHandler routes inbound messages for (chain, receiver) to handler.
func (c *LocalChannel) RegisterHandler(chain uint32, receiver []byte, handler types.InboundHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[routeKey(chain, receiver)] = handler
}

// Endpoint binds a sender identity to the channel. Components hold an
// endpoint, not the channel itself, so every envelope they send is stamped
// with their own chain and address.
func (c *LocalChannel) Endpoint(srcChain uint32, sender []byte) types.Channel {
	return &boundEndpoint{channel: c, srcChain: srcChain, sender: append([]byte(nil), sender...)}
}

// QuoteFee prices delivery toward destChain.
func (c *LocalChannel) QuoteFee(_ context.Context, destChain uint32, _, _ []byte, gasLimit uint64) (sdkmath.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.fees[destChain]
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrNoFeeConfig, destChain)
	}
	return cfg.BaseFee.Add(cfg.GasPrice.MulRaw(int64(gasLimit))), nil
}

func (c *LocalChannel) send(ctx context.Context, srcChain uint32, sender []byte, destChain uint32, receiver, payload []byte, gasLimit uint64, fee sdkmath.Int) (string, error) {
	quote, err := c.QuoteFee(ctx, destChain, receiver, payload, gasLimit)
	if err != nil {
		return "", err
	}
	if fee.IsNil() || fee.LT(quote) {
		return "", fmt.Errorf("%w: attached %s, quoted %s", types.ErrInsufficientFee, fee, quote)
	}

	env := types.Envelope{
		ID:        uuid.NewString(),
		SrcChain:  srcChain,
		Sender:    append([]byte(nil), sender...),
		DestChain: destChain,
		Receiver:  append([]byte(nil), receiver...),
		Payload:   append([]byte(nil), payload...),
	}

	c.mu.Lock()
	c.pending = append(c.pending, env)
	c.history[env.ID] = env
	c.FeesPaid = c.FeesPaid.Add(quote)
	c.mu.Unlock()

	c.logger.Debug("message enqueued",
		"msg_id", env.ID,
		"src_chain", srcChain,
		"dest_chain", destChain,
		"payload_bytes", len(payload),
	)
	return env.ID, nil
}

// PendingFor counts queued envelopes destined for chain.
func (c *LocalChannel) PendingFor(chain uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, env := range c.pending {
		if env.DestChain == chain {
			n++
		}
	}
	return n
}

// DeliverNext pops the oldest envelope destined for destChain and invokes its
// registered handler with the destination ledger's context. Returns false
// when nothing is queued for that chain. A handler error leaves the envelope
// out of the queue: retrying a failed delivery is an operational action done
// through Redeliver.
func (c *LocalChannel) DeliverNext(ctx context.Context, destChain uint32) (string, bool, error) {
	c.mu.Lock()
	idx := -1
	for i, env := range c.pending {
		if env.DestChain == destChain {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return "", false, nil
	}
	env := c.pending[idx]
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	c.mu.Unlock()

	return env.ID, true, c.dispatch(ctx, env)
}

// Redeliver re-invokes the handler for a message the channel has already
// carried. This is the at-least-once path: receivers must treat it as a
// no-op once the id is in their processed set.
func (c *LocalChannel) Redeliver(ctx context.Context, msgID string) error {
	c.mu.Lock()
	env, ok := c.history[msgID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownMessage, msgID)
	}
	return c.dispatch(ctx, env)
}

func (c *LocalChannel) dispatch(ctx context.Context, env types.Envelope) error {
	c.mu.Lock()
	handler, ok := c.handlers[routeKey(env.DestChain, env.Receiver)]
	env.Attempts++
	c.history[env.ID] = env
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: chain %d receiver %s", types.ErrNoRoute, env.DestChain, hex.EncodeToString(env.Receiver))
	}

	if err := handler.OnMessage(ctx, env.ID, env.SrcChain, env.Sender, env.Payload); err != nil {
		c.logger.Error("inbound handler failed", "msg_id", env.ID, "err", err)
		return err
	}
	return nil
}

func routeKey(chain uint32, receiver []byte) string {
	return fmt.Sprintf("%d/%s", chain, hex.EncodeToString(receiver))
}

type boundEndpoint struct {
	channel  *LocalChannel
	srcChain uint32
	sender   []byte
}

var _ types.Channel = (*boundEndpoint)(nil)

func (e *boundEndpoint) QuoteFee(ctx context.Context, destChain uint32, receiver, payload []byte, gasLimit uint64) (sdkmath.Int, error) {
	return e.channel.QuoteFee(ctx, destChain, receiver, payload, gasLimit)
}

func (e *boundEndpoint) Send(ctx context.Context, destChain uint32, receiver, payload []byte, gasLimit uint64, fee sdkmath.Int) (string, error) {
	return e.channel.send(ctx, e.srcChain, e.sender, destChain, receiver, payload, gasLimit, fee)
}
