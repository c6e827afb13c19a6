// Package sdkutil holds the small context and event helpers shared by every
// module keeper in the protocol.
package sdkutil

import (
	"context"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// UnwrapSDKContext extracts an sdk.Context when the caller passed one, either
// directly or nested under the SDK context key.
func UnwrapSDKContext(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

// ContextNow returns the enclosing sdk.Context (if any) and the current
// ledger time: block time on-chain, wall clock off-chain.
func ContextNow(ctx context.Context) (sdk.Context, time.Time) {
	if sdkCtx, ok := UnwrapSDKContext(ctx); ok {
		return sdkCtx, sdkCtx.BlockTime()
	}
	return sdk.Context{}, time.Now().UTC()
}

// EmitEvent emits an event when the context carries an event manager.
func EmitEvent(ctx context.Context, event sdk.Event) {
	sdkCtx, ok := UnwrapSDKContext(ctx)
	if !ok {
		return
	}
	if em := sdkCtx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}
