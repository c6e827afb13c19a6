package bridge_test

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/defiguardian/guardian/x/bridge"
	"github.com/defiguardian/guardian/x/bridge/types"
)

const (
	chainA = uint32(1)
	chainB = uint32(2)
)

type recordingHandler struct {
	calls []delivered
	fail  error
}

type delivered struct {
	msgID    string
	srcChain uint32
	sender   string
	payload  string
}

func (h *recordingHandler) OnMessage(_ context.Context, msgID string, srcChain uint32, sender, payload []byte) error {
	if h.fail != nil {
		return h.fail
	}
	h.calls = append(h.calls, delivered{
		msgID:    msgID,
		srcChain: srcChain,
		sender:   string(sender),
		payload:  string(payload),
	})
	return nil
}

func newChannel() *bridge.LocalChannel {
	c := bridge.NewLocalChannel(log.NewNopLogger())
	c.SetFeeConfig(chainA, bridge.FeeConfig{BaseFee: sdkmath.NewInt(10), GasPrice: sdkmath.NewInt(2)})
	c.SetFeeConfig(chainB, bridge.FeeConfig{BaseFee: sdkmath.NewInt(10), GasPrice: sdkmath.ZeroInt()})
	return c
}

func TestQuoteFeeAddsGasToBase(t *testing.T) {
	c := newChannel()
	ctx := context.Background()

	fee, err := c.QuoteFee(ctx, chainA, []byte("recv"), []byte("payload"), 100)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(210), fee)

	_, err = c.QuoteFee(ctx, uint32(9), []byte("recv"), []byte("payload"), 100)
	require.ErrorIs(t, err, types.ErrNoFeeConfig)
}

func TestSendRejectsUnderpaidFee(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	endpoint := c.Endpoint(chainA, []byte("sender"))

	_, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("payload"), 0, sdkmath.NewInt(9))
	require.ErrorIs(t, err, types.ErrInsufficientFee)
	require.Zero(t, c.PendingFor(chainB))
}

func TestDeliverNextRoutesToRegisteredHandler(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	handler := &recordingHandler{}
	c.RegisterHandler(chainB, []byte("recv"), handler)

	endpoint := c.Endpoint(chainA, []byte("sender"))
	msgID, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("payload"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, 1, c.PendingFor(chainB))

	delivered, ok, err := c.DeliverNext(ctx, chainB)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, msgID, delivered)
	require.Zero(t, c.PendingFor(chainB))

	require.Len(t, handler.calls, 1)
	require.Equal(t, chainA, handler.calls[0].srcChain)
	require.Equal(t, "sender", handler.calls[0].sender)
	require.Equal(t, "payload", handler.calls[0].payload)

	// Queue drained.
	_, ok, err = c.DeliverNext(ctx, chainB)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeliverNextIsPerDestination(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	toA := &recordingHandler{}
	toB := &recordingHandler{}
	c.RegisterHandler(chainA, []byte("recv-a"), toA)
	c.RegisterHandler(chainB, []byte("recv-b"), toB)

	fromA := c.Endpoint(chainA, []byte("sender-a"))
	fromB := c.Endpoint(chainB, []byte("sender-b"))
	_, err := fromA.Send(ctx, chainB, []byte("recv-b"), []byte("p1"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)
	_, err = fromB.Send(ctx, chainA, []byte("recv-a"), []byte("p2"), 0, sdkmath.NewInt(210))
	require.NoError(t, err)

	_, ok, err := c.DeliverNext(ctx, chainA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, toA.calls, 1)
	require.Empty(t, toB.calls)
	require.Equal(t, 1, c.PendingFor(chainB))
}

func TestDeliverNextFailsWithoutRoute(t *testing.T) {
	c := newChannel()
	ctx := context.Background()

	endpoint := c.Endpoint(chainA, []byte("sender"))
	_, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("payload"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)

	_, ok, err := c.DeliverNext(ctx, chainB)
	require.True(t, ok)
	require.ErrorIs(t, err, types.ErrNoRoute)
}

func TestRedeliverReplaysCarriedMessage(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	handler := &recordingHandler{}
	c.RegisterHandler(chainB, []byte("recv"), handler)

	endpoint := c.Endpoint(chainA, []byte("sender"))
	msgID, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("payload"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)
	_, _, err = c.DeliverNext(ctx, chainB)
	require.NoError(t, err)

	// Same id, same envelope: the receiver's dedup is what makes this safe.
	require.NoError(t, c.Redeliver(ctx, msgID))
	require.Len(t, handler.calls, 2)
	require.Equal(t, handler.calls[0].msgID, handler.calls[1].msgID)

	require.ErrorIs(t, c.Redeliver(ctx, "no-such-id"), types.ErrUnknownMessage)
}

func TestRedeliverRetriesFailedDelivery(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	handler := &recordingHandler{fail: errors.New("not configured yet")}
	c.RegisterHandler(chainB, []byte("recv"), handler)

	endpoint := c.Endpoint(chainA, []byte("sender"))
	msgID, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("payload"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)

	_, ok, err := c.DeliverNext(ctx, chainB)
	require.True(t, ok)
	require.Error(t, err)
	require.Zero(t, c.PendingFor(chainB))

	handler.fail = nil
	require.NoError(t, c.Redeliver(ctx, msgID))
	require.Len(t, handler.calls, 1)
}

func TestFeesAccumulateAtQuotedPrice(t *testing.T) {
	c := newChannel()
	ctx := context.Background()
	endpoint := c.Endpoint(chainA, []byte("sender"))

	// Overpayment is accepted but only the quote is metered.
	_, err := endpoint.Send(ctx, chainB, []byte("recv"), []byte("p1"), 0, sdkmath.NewInt(50))
	require.NoError(t, err)
	_, err = endpoint.Send(ctx, chainB, []byte("recv"), []byte("p2"), 0, sdkmath.NewInt(10))
	require.NoError(t, err)

	require.Equal(t, sdkmath.NewInt(20), c.FeesPaid)
}
