package keeper

import (
	"context"
	"encoding/hex"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/reserve/types"
)

// AssetKeeper defines the expected premium asset interface.
type AssetKeeper interface {
	TransferFrom(ctx context.Context, payer, to string, amount sdkmath.Int) error
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, account string) sdkmath.Int
}

// Keeper holds reserve funds and executes payouts authorized by claim
// governance messages.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	asset AssetKeeper
	guard *sdkutil.ReentryGuard

	ReserveCounter collections.Item[string]
	Processed      collections.KeySet[string]
	AllowedSources collections.KeySet[uint64]
	AllowedSenders collections.KeySet[string]
}

var _ bridgetypes.InboundHandler = Keeper{}

// NewKeeper creates a new payout reserve keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	asset AssetKeeper,
	authority string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		authority:    authority,
		asset:        asset,
		guard:        sdkutil.NewReentryGuard(),
		ReserveCounter: collections.NewItem(
			sb,
			collections.NewPrefix(types.ReserveCounterKey),
			"reserve_counter",
			collections.StringValue,
		),
		Processed: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.ProcessedKeyPrefix),
			"processed_messages",
			collections.StringKey,
		),
		AllowedSources: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AllowedSourceKeyPrefix),
			"allowed_sources",
			collections.Uint64Key,
		),
		AllowedSenders: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AllowedSenderKeyPrefix),
			"allowed_senders",
			collections.StringKey,
		),
	}
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// AllowSource adds a source chain to the inbound allowlist. Authority only.
func (k Keeper) AllowSource(ctx context.Context, caller string, chainID uint32) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	return k.AllowedSources.Set(ctx, uint64(chainID))
}

// AllowSender adds an inbound sender to the allowlist. Authority only.
func (k Keeper) AllowSender(ctx context.Context, caller string, sender []byte) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if len(sender) == 0 {
		return fmt.Errorf("sender cannot be empty")
	}
	return k.AllowedSenders.Set(ctx, hex.EncodeToString(sender))
}

// Reserve earmarks amount for future payouts. Deliberately un-gated: the
// premium splitter is trusted to call it with the reserve cut it just
// transferred, and third parties over-funding the counter only strengthen it.
func (k Keeper) Reserve(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	reserved, err := k.Reserves(ctx)
	if err != nil {
		return err
	}
	if err := k.ReserveCounter.Set(ctx, reserved.Add(amount).String()); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"reserve_increased",
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("reserved", reserved.Add(amount).String()),
	))
	return nil
}

// Fund pushes extra asset into the vault without earmarking it.
func (k Keeper) Fund(ctx context.Context, from string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	return k.asset.TransferFrom(ctx, from, types.ModuleAccount, amount)
}

// Rescue is an owner-only emergency transfer out of the reserve account.
func (k Keeper) Rescue(ctx context.Context, caller, to string, amount sdkmath.Int) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	if err := k.asset.Transfer(ctx, types.ModuleAccount, to, amount); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"reserve_rescued",
		sdk.NewAttribute("to", to),
		sdk.NewAttribute("amount", amount.String()),
	))
	return nil
}

// Reserves returns the earmarked reserve counter.
func (k Keeper) Reserves(ctx context.Context) (sdkmath.Int, error) {
	raw, err := k.ReserveCounter.Get(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), nil
	}
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("corrupt reserve counter: %q", raw)
	}
	return value, nil
}

// OnMessage executes a payout instruction from claim governance. Duplicate
// message ids are skipped without error; every other failure leaves state
// untouched so a corrected retry can succeed.
func (k Keeper) OnMessage(ctx context.Context, msgID string, srcChain uint32, sender, payload []byte) error {
	if err := k.guard.Enter("reserve_on_message"); err != nil {
		return err
	}
	defer k.guard.Exit()

	if seen, err := k.Processed.Has(ctx, msgID); err == nil && seen {
		sdkutil.EmitEvent(ctx, sdk.NewEvent(
			"reserve_message_skipped",
			sdk.NewAttribute("msg_id", msgID),
		))
		return nil
	}
	if allowed, err := k.AllowedSources.Has(ctx, uint64(srcChain)); err != nil || !allowed {
		return fmt.Errorf("%w: %d", types.ErrSourceNotAllowed, srcChain)
	}
	if allowed, err := k.AllowedSenders.Has(ctx, hex.EncodeToString(sender)); err != nil || !allowed {
		return fmt.Errorf("%w: %s", types.ErrSenderNotAllowed, hex.EncodeToString(sender))
	}

	payout, err := bridgetypes.DecodePayout(payload)
	if err != nil {
		return err
	}
	if payout.Tag != bridgetypes.PayoutMessageTag {
		return fmt.Errorf("%w: %q", types.ErrBadTag, payout.Tag)
	}
	if payout.Amount.IsNil() || !payout.Amount.IsPositive() {
		return types.ErrInvalidAmount
	}

	reserved, err := k.Reserves(ctx)
	if err != nil {
		return err
	}
	if reserved.LT(payout.Amount) {
		return fmt.Errorf("%w: reserved %s, payout %s", types.ErrInsufficientReserve, reserved, payout.Amount)
	}

	if err := k.asset.Transfer(ctx, types.ModuleAccount, payout.Claimant, payout.Amount); err != nil {
		return err
	}
	if err := k.ReserveCounter.Set(ctx, reserved.Sub(payout.Amount).String()); err != nil {
		return err
	}
	if err := k.Processed.Set(ctx, msgID); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"claim_paid",
		sdk.NewAttribute("msg_id", msgID),
		sdk.NewAttribute("claim_id", fmt.Sprintf("%d", payout.ClaimID)),
		sdk.NewAttribute("claimant", payout.Claimant),
		sdk.NewAttribute("amount", payout.Amount.String()),
	))
	return nil
}
