package keeper

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/vault/types"
)

// Deposit pulls amount of the premium asset from depositor and issues shares.
// The share price is computed against the vault balance after the transfer,
// so the deposit itself sits in the divisor. Resets the depositor's cooldown
// and mirrors the new voting power. The sync fee is checked before anything
// moves: a rejected deposit leaves the depositor's balance, the stake and the
// share total untouched.
func (k Keeper) Deposit(ctx context.Context, depositor string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := k.guard.Enter("deposit"); err != nil {
		return sdkmath.Int{}, err
	}
	defer k.guard.Exit()

	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.Int{}, types.ErrInvalidAmount
	}

	total, err := k.readInt(ctx, k.TotalShares)
	if err != nil {
		return sdkmath.Int{}, err
	}

	var minted sdkmath.Int
	if total.IsZero() {
		minted = amount
	} else {
		balance := k.asset.BalanceOf(ctx, types.ModuleAccount).Add(amount)
		minted = amount.Mul(total).Quo(balance)
	}

	_, now := sdkutil.ContextNow(ctx)
	stake, err := k.GetStake(ctx, depositor)
	if err != nil {
		return sdkmath.Int{}, err
	}
	stake.Shares = stake.Shares.Add(minted)
	stake.LockedUntilUnix = now.Add(time.Duration(k.cooldownSeconds(ctx)) * time.Second).Unix()

	plan, err := k.planSync(ctx, stake)
	if err != nil {
		return sdkmath.Int{}, err
	}

	if err := k.asset.TransferFrom(ctx, depositor, types.ModuleAccount, amount); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.setStake(ctx, stake); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.TotalShares.Set(ctx, total.Add(minted).String()); err != nil {
		return sdkmath.Int{}, err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"vault_deposit",
		sdk.NewAttribute("depositor", depositor),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("shares", minted.String()),
	))

	if err := k.sendSync(ctx, stake, plan); err != nil {
		return sdkmath.Int{}, err
	}
	return minted, nil
}

// RequestWithdraw records the single pending withdrawal for owner,
// overwriting any prior request.
func (k Keeper) RequestWithdraw(ctx context.Context, owner string, shares sdkmath.Int) error {
	if shares.IsNil() || !shares.IsPositive() {
		return types.ErrInvalidShares
	}
	stake, err := k.GetStake(ctx, owner)
	if err != nil {
		return err
	}
	if shares.GT(stake.Shares) {
		return fmt.Errorf("%w: requested %s, staked %s", types.ErrInvalidShares, shares, stake.Shares)
	}

	_, now := sdkutil.ContextNow(ctx)
	req := types.WithdrawRequest{
		Owner:        owner,
		Shares:       shares,
		UnlockAtUnix: now.Add(time.Duration(k.cooldownSeconds(ctx)) * time.Second).Unix(),
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := k.WithdrawRequests.Set(ctx, owner, string(raw)); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"vault_withdraw_requested",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("shares", shares.String()),
		sdk.NewAttribute("unlock_at_unix", fmt.Sprintf("%d", req.UnlockAtUnix)),
	))
	return nil
}

// FinalizeWithdraw burns the requested shares at the current share price and
// pays the owner out, then syncs the owner's reduced voting power. The sync
// fee is checked before anything moves: a rejected finalize keeps the request
// pending and the stake intact, ready for a funded retry.
func (k Keeper) FinalizeWithdraw(ctx context.Context, owner string) (sdkmath.Int, error) {
	if err := k.guard.Enter("finalize_withdraw"); err != nil {
		return sdkmath.Int{}, err
	}
	defer k.guard.Exit()

	req, found, err := k.GetWithdrawRequest(ctx, owner)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if !found || req.Shares.IsZero() {
		return sdkmath.Int{}, types.ErrNoPendingWithdrawal
	}

	_, now := sdkutil.ContextNow(ctx)
	if now.Unix() < req.UnlockAtUnix {
		return sdkmath.Int{}, fmt.Errorf("%w: unlocks at %d", types.ErrCooldownActive, req.UnlockAtUnix)
	}

	stake, err := k.GetStake(ctx, owner)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if req.Shares.GT(stake.Shares) {
		return sdkmath.Int{}, fmt.Errorf("%w: pending %s exceeds staked %s", types.ErrInvalidShares, req.Shares, stake.Shares)
	}

	total, err := k.readInt(ctx, k.TotalShares)
	if err != nil {
		return sdkmath.Int{}, err
	}
	balance := k.asset.BalanceOf(ctx, types.ModuleAccount)
	payout := req.Shares.Mul(balance).Quo(total)

	stake.Shares = stake.Shares.Sub(req.Shares)
	plan, err := k.planSync(ctx, stake)
	if err != nil {
		return sdkmath.Int{}, err
	}

	if err := k.asset.Transfer(ctx, types.ModuleAccount, owner, payout); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.setStake(ctx, stake); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.TotalShares.Set(ctx, total.Sub(req.Shares).String()); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.WithdrawRequests.Remove(ctx, owner); err != nil {
		return sdkmath.Int{}, err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"vault_withdraw_finalized",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("shares", req.Shares.String()),
		sdk.NewAttribute("payout", payout.String()),
	))

	if err := k.sendSync(ctx, stake, plan); err != nil {
		return sdkmath.Int{}, err
	}
	return payout, nil
}

// syncPlan is a power-sync message prepared against the stake an operation is
// about to commit. Planning happens before any state mutation, so a fee
// rejection surfaces while the ledgers are still untouched.
type syncPlan struct {
	skip     bool
	chainID  uint32
	receiver []byte
	gasLimit uint64
	payload  []byte
	fee      sdkmath.Int
}

// planSync prepares the mirror update carrying stake's share total as an
// absolute voting-power value. Best effort: a missing channel, route or gas
// config is a silent skip; an underfunded fee budget is an error.
func (k Keeper) planSync(ctx context.Context, stake types.Stake) (syncPlan, error) {
	if k.channel == nil {
		return syncPlan{skip: true}, nil
	}
	rawRoute, err := k.MirrorRoute.Get(ctx)
	if err != nil {
		return syncPlan{skip: true}, nil
	}
	var route types.MirrorRoute
	if err := json.Unmarshal([]byte(rawRoute), &route); err != nil {
		return syncPlan{}, fmt.Errorf("decode mirror route: %w", err)
	}
	gasLimit, err := k.GasConfigs.Get(ctx, uint64(route.ChainID))
	if err != nil {
		return syncPlan{skip: true}, nil
	}
	receiver, err := hex.DecodeString(route.Receiver)
	if err != nil {
		return syncPlan{}, fmt.Errorf("decode mirror receiver: %w", err)
	}

	payload, err := bridgetypes.EncodePayload(bridgetypes.PowerSyncPayload{
		Updates: []bridgetypes.PowerUpdate{{
			Account:     stake.Owner,
			Power:       stake.Shares,
			IsDelta:     false,
			LockedUntil: stake.LockedUntilUnix,
		}},
	})
	if err != nil {
		return syncPlan{}, err
	}

	fee, err := k.channel.QuoteFee(ctx, route.ChainID, receiver, payload, gasLimit)
	if err != nil {
		return syncPlan{}, err
	}
	native, err := k.readInt(ctx, k.NativeBalance)
	if err != nil {
		return syncPlan{}, err
	}
	if native.LT(fee) {
		return syncPlan{}, fmt.Errorf("%w: need %s, have %s", types.ErrInsufficientNativeFee, fee, native)
	}

	return syncPlan{
		chainID:  route.ChainID,
		receiver: receiver,
		gasLimit: gasLimit,
		payload:  payload,
		fee:      fee,
	}, nil
}

// sendSync debits the planned fee and dispatches the prepared update.
func (k Keeper) sendSync(ctx context.Context, stake types.Stake, plan syncPlan) error {
	if plan.skip {
		return nil
	}
	native, err := k.readInt(ctx, k.NativeBalance)
	if err != nil {
		return err
	}
	if err := k.NativeBalance.Set(ctx, native.Sub(plan.fee).String()); err != nil {
		return err
	}

	msgID, err := k.channel.Send(ctx, plan.chainID, plan.receiver, plan.payload, plan.gasLimit, plan.fee)
	if err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"vault_power_synced",
		sdk.NewAttribute("account", stake.Owner),
		sdk.NewAttribute("power", stake.Shares.String()),
		sdk.NewAttribute("msg_id", msgID),
	))
	return nil
}
