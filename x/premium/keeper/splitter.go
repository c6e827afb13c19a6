package keeper

import (
	"context"
	"encoding/hex"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/premium/types"
)

// BuyCoverage pulls the premium from the buyer, splits it between the share
// vault and the payout reserve, and forwards the policy terms to the registry
// on destChain. nativeAttached must cover the quoted delivery fee; the excess
// comes back as refund.
func (k Keeper) BuyCoverage(
	ctx context.Context,
	buyer string,
	destChain uint32,
	destReceiver []byte,
	terms types.CoverageTerms,
	premium sdkmath.Int,
	nativeAttached sdkmath.Int,
) (string, sdkmath.Int, error) {
	if err := k.guard.Enter("buy_coverage"); err != nil {
		return "", sdkmath.Int{}, err
	}
	defer k.guard.Exit()

	if allowed, err := k.AllowedChains.Has(ctx, uint64(destChain)); err != nil || !allowed {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrDestinationNotAllowed, destChain)
	}
	if allowed, err := k.AllowedReceivers.Has(ctx, hex.EncodeToString(destReceiver)); err != nil || !allowed {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %s", types.ErrReceiverNotAllowed, hex.EncodeToString(destReceiver))
	}
	if premium.IsNil() || !premium.IsPositive() {
		return "", sdkmath.Int{}, types.ErrInvalidAmount
	}

	split, err := k.GetSplit(ctx)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	gasLimit, err := k.GasConfigs.Get(ctx, uint64(destChain))
	if err != nil {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrNoGasConfig, destChain)
	}

	payloadStruct := bridgetypes.PolicyTermsPayload{
		PoolID:    terms.PoolID,
		Buyer:     buyer,
		Coverage:  terms.Coverage,
		StartUnix: terms.StartUnix,
		EndUnix:   terms.EndUnix,
		PolicyRef: terms.PolicyRef,
	}
	if err := payloadStruct.Validate(); err != nil {
		return "", sdkmath.Int{}, err
	}
	payload, err := bridgetypes.EncodePayload(payloadStruct)
	if err != nil {
		return "", sdkmath.Int{}, err
	}

	fee, err := k.channel.QuoteFee(ctx, destChain, destReceiver, payload, gasLimit)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	if nativeAttached.IsNil() || nativeAttached.LT(fee) {
		return "", sdkmath.Int{}, fmt.Errorf("%w: need %s, attached %s", types.ErrInsufficientNativeFee, fee, nativeAttached)
	}
	refund := nativeAttached.Sub(fee)

	toLp, toReserve := splitPremium(premium, split)
	if err := k.asset.TransferFrom(ctx, buyer, types.ModuleAccount, premium); err != nil {
		return "", sdkmath.Int{}, err
	}
	if err := k.asset.Transfer(ctx, types.ModuleAccount, k.vaultAccount, toLp); err != nil {
		return "", sdkmath.Int{}, err
	}
	if err := k.asset.Transfer(ctx, types.ModuleAccount, k.reserveAccount, toReserve); err != nil {
		return "", sdkmath.Int{}, err
	}
	if err := k.reserve.Reserve(ctx, toReserve); err != nil {
		return "", sdkmath.Int{}, err
	}

	msgID, err := k.channel.Send(ctx, destChain, destReceiver, payload, gasLimit, fee)
	if err != nil {
		return "", sdkmath.Int{}, err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"coverage_purchased",
		sdk.NewAttribute("buyer", buyer),
		sdk.NewAttribute("premium", premium.String()),
		sdk.NewAttribute("to_lp", toLp.String()),
		sdk.NewAttribute("to_reserve", toReserve.String()),
		sdk.NewAttribute("msg_id", msgID),
	))
	return msgID, refund, nil
}

// PreviewAllocation mirrors BuyCoverage's split math without side effects.
func (k Keeper) PreviewAllocation(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInvalidAmount
	}
	split, err := k.GetSplit(ctx)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	toLp, toReserve := splitPremium(amount, split)
	return toLp, toReserve, nil
}

// QuoteDeliveryFee prices the policy-terms message for the given terms.
func (k Keeper) QuoteDeliveryFee(
	ctx context.Context,
	buyer string,
	destChain uint32,
	destReceiver []byte,
	terms types.CoverageTerms,
) (sdkmath.Int, error) {
	gasLimit, err := k.GasConfigs.Get(ctx, uint64(destChain))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrNoGasConfig, destChain)
	}
	payload, err := bridgetypes.EncodePayload(bridgetypes.PolicyTermsPayload{
		PoolID:    terms.PoolID,
		Buyer:     buyer,
		Coverage:  terms.Coverage,
		StartUnix: terms.StartUnix,
		EndUnix:   terms.EndUnix,
		PolicyRef: terms.PolicyRef,
	})
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.channel.QuoteFee(ctx, destChain, destReceiver, payload, gasLimit)
}

// splitPremium floors the LP cut and leaves the remainder to the reserve, so
// basis-point rounding dust lands on the reserve side.
func splitPremium(amount sdkmath.Int, split types.SplitConfig) (sdkmath.Int, sdkmath.Int) {
	toLp := amount.MulRaw(int64(split.LpBps)).QuoRaw(types.BpsDenominator)
	return toLp, amount.Sub(toLp)
}
