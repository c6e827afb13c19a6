package keeper

import (
	"context"
	"encoding/hex"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/claims/types"
)

// OpenClaim opens a claim against an active policy. Only the policy buyer or
// the governance authority may open one, the current time must sit inside the
// coverage window, and the amount must fit inside the coverage.
func (k Keeper) OpenClaim(
	ctx context.Context,
	caller string,
	policyID string,
	claimant string,
	amount sdkmath.Int,
	destChain uint32,
	destVault []byte,
) (uint64, error) {
	policy, err := k.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return 0, err
	}
	if !policy.Active {
		return 0, fmt.Errorf("%w: %s", types.ErrPolicyInactive, policyID)
	}
	if caller != policy.Buyer && caller != k.authority {
		return 0, types.ErrNotPolicyHolder
	}

	_, now := sdkutil.ContextNow(ctx)
	if now.Unix() < policy.StartUnix || now.Unix() > policy.EndUnix {
		return 0, types.ErrOutsideCoverage
	}
	if amount.IsNil() || !amount.IsPositive() || amount.GT(policy.Coverage) {
		return 0, fmt.Errorf("%w: amount %s, coverage %s", types.ErrInvalidAmount, amount, policy.Coverage)
	}

	id, err := k.nextClaimID(ctx)
	if err != nil {
		return 0, err
	}
	params := k.GetParams(ctx)
	claim := types.Claim{
		ID:            id,
		PolicyID:      policyID,
		Claimant:      claimant,
		Amount:        amount,
		VoteStartUnix: now.Unix(),
		VoteEndUnix:   now.Unix() + params.VotingPeriodSeconds,
		DestChain:     destChain,
		DestVault:     hex.EncodeToString(destVault),
		YesWeight:     sdkmath.ZeroInt(),
		NoWeight:      sdkmath.ZeroInt(),
	}
	if err := k.setClaim(ctx, claim); err != nil {
		return 0, err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeClaimOpened,
		sdk.NewAttribute("claim_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("policy_id", policyID),
		sdk.NewAttribute("claimant", claimant),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("vote_end_unix", fmt.Sprintf("%d", claim.VoteEndUnix)),
	))
	return id, nil
}

// Vote adds the voter's current mirrored power to the yes or no tally. The
// weight is read live at vote time, not snapshotted at claim open; power
// moved between ledgers mid-vote therefore moves tallies, which is a
// deliberate policy choice of the protocol.
func (k Keeper) Vote(ctx context.Context, claimID uint64, voter string, support bool) error {
	claim, err := k.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}

	_, now := sdkutil.ContextNow(ctx)
	if claim.Finalized || now.Unix() > claim.VoteEndUnix {
		return types.ErrVoteWindowClosed
	}
	key := votedKey(claimID, voter)
	if voted, err := k.Voted.Has(ctx, key); err == nil && voted {
		return types.ErrAlreadyVoted
	}

	weight, err := k.powers.GetPowerOf(ctx, voter)
	if err != nil {
		return err
	}
	if support {
		claim.YesWeight = claim.YesWeight.Add(weight)
	} else {
		claim.NoWeight = claim.NoWeight.Add(weight)
	}
	if err := k.setClaim(ctx, claim); err != nil {
		return err
	}
	if err := k.Voted.Set(ctx, key); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeClaimVoted,
		sdk.NewAttribute("claim_id", fmt.Sprintf("%d", claimID)),
		sdk.NewAttribute("voter", voter),
		sdk.NewAttribute("support", fmt.Sprintf("%t", support)),
		sdk.NewAttribute("weight", weight.String()),
	))
	return nil
}

// Finalize closes voting with the quorum-and-majority rule and, on approval,
// dispatches the payout instruction to the reserve on the claim's destination
// chain. nativeAttached must cover the quoted delivery fee; the excess comes
// back as refund. Rejected claims need no message and no fee.
func (k Keeper) Finalize(
	ctx context.Context,
	claimID uint64,
	nativeAttached sdkmath.Int,
) (string, sdkmath.Int, error) {
	claim, err := k.GetClaim(ctx, claimID)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	if claim.Finalized {
		return "", sdkmath.Int{}, types.ErrAlreadyFinalized
	}

	_, now := sdkutil.ContextNow(ctx)
	if now.Unix() <= claim.VoteEndUnix {
		return "", sdkmath.Int{}, fmt.Errorf("%w: closes at %d", types.ErrVoteWindowOpen, claim.VoteEndUnix)
	}

	total, err := k.powers.GetTotalPower(ctx)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	if total.IsZero() {
		total = sdkmath.OneInt()
	}
	params := k.GetParams(ctx)
	turnout := claim.YesWeight.Add(claim.NoWeight)
	participationBps := turnout.MulRaw(types.QuorumDenominator).Quo(total)
	quorumMet := participationBps.GTE(sdkmath.NewInt(int64(params.QuorumBps)))
	approved := quorumMet && claim.YesWeight.GT(claim.NoWeight)

	claim.Finalized = true
	claim.Approved = approved

	if !approved {
		if err := k.setClaim(ctx, claim); err != nil {
			return "", sdkmath.Int{}, err
		}
		sdkutil.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeClaimFinalized,
			sdk.NewAttribute("claim_id", fmt.Sprintf("%d", claimID)),
			sdk.NewAttribute("approved", "false"),
			sdk.NewAttribute("yes_weight", claim.YesWeight.String()),
			sdk.NewAttribute("no_weight", claim.NoWeight.String()),
		))
		return "", nativeAttached, nil
	}

	if allowed, err := k.AllowedChains.Has(ctx, uint64(claim.DestChain)); err != nil || !allowed {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrDestinationNotAllowed, claim.DestChain)
	}
	if allowed, err := k.AllowedReceivers.Has(ctx, claim.DestVault); err != nil || !allowed {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %s", types.ErrReceiverNotAllowed, claim.DestVault)
	}
	gasLimit, err := k.GasConfigs.Get(ctx, uint64(claim.DestChain))
	if err != nil {
		return "", sdkmath.Int{}, fmt.Errorf("%w: %d", types.ErrNoGasConfig, claim.DestChain)
	}
	receiver, err := hex.DecodeString(claim.DestVault)
	if err != nil {
		return "", sdkmath.Int{}, fmt.Errorf("decode destination vault: %w", err)
	}

	payload, err := bridgetypes.EncodePayload(bridgetypes.PayoutPayload{
		Tag:      bridgetypes.PayoutMessageTag,
		ClaimID:  claim.ID,
		Claimant: claim.Claimant,
		Amount:   claim.Amount,
	})
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	fee, err := k.channel.QuoteFee(ctx, claim.DestChain, receiver, payload, gasLimit)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	if nativeAttached.IsNil() || nativeAttached.LT(fee) {
		return "", sdkmath.Int{}, fmt.Errorf("%w: need %s, attached %s", types.ErrInsufficientNativeFee, fee, nativeAttached)
	}

	msgID, err := k.channel.Send(ctx, claim.DestChain, receiver, payload, gasLimit, fee)
	if err != nil {
		return "", sdkmath.Int{}, err
	}
	if err := k.setClaim(ctx, claim); err != nil {
		return "", sdkmath.Int{}, err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeClaimFinalized,
		sdk.NewAttribute("claim_id", fmt.Sprintf("%d", claimID)),
		sdk.NewAttribute("approved", "true"),
		sdk.NewAttribute("yes_weight", claim.YesWeight.String()),
		sdk.NewAttribute("no_weight", claim.NoWeight.String()),
	))
	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypePayoutSent,
		sdk.NewAttribute("claim_id", fmt.Sprintf("%d", claimID)),
		sdk.NewAttribute("claimant", claim.Claimant),
		sdk.NewAttribute("amount", claim.Amount.String()),
		sdk.NewAttribute("msg_id", msgID),
	))
	return msgID, nativeAttached.Sub(fee), nil
}
