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
	"github.com/defiguardian/guardian/x/mirror/types"
)

// Keeper maintains per-account voting power mirrored from the share vault,
// plus an incrementally maintained aggregate total.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	Powers         collections.Map[string, string]
	TotalPower     collections.Item[string]
	Processed      collections.KeySet[string]
	AllowedSources collections.KeySet[uint64]
	AllowedSenders collections.KeySet[string]
}

var _ bridgetypes.InboundHandler = Keeper{}

// NewKeeper creates a new voting-power mirror keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	authority string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		authority:    authority,
		Powers: collections.NewMap(
			sb,
			collections.NewPrefix(types.PowerKeyPrefix),
			"powers",
			collections.StringKey,
			collections.StringValue,
		),
		TotalPower: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalPowerKey),
			"total_power",
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

// OnMessage applies a batch of voting-power updates. A delta update with a
// non-positive power has no wire representation for its intent and is
// skipped, as is a negative absolute value; a valid absolute update moves
// the total by the signed difference.
func (k Keeper) OnMessage(ctx context.Context, msgID string, srcChain uint32, sender, payload []byte) error {
	if seen, err := k.Processed.Has(ctx, msgID); err == nil && seen {
		sdkutil.EmitEvent(ctx, sdk.NewEvent(
			"mirror_message_skipped",
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

	batch, err := bridgetypes.DecodePowerSync(payload)
	if err != nil {
		return err
	}

	total, err := k.GetTotalPower(ctx)
	if err != nil {
		return err
	}
	applied := 0
	skipped := 0
	for _, update := range batch.Updates {
		if update.Account == "" || update.Power.IsNil() {
			skipped++
			continue
		}
		current, err := k.GetPowerOf(ctx, update.Account)
		if err != nil {
			return err
		}

		var next sdkmath.Int
		if update.IsDelta {
			if !update.Power.IsPositive() {
				skipped++
				continue
			}
			next = current.Add(update.Power)
			total = total.Add(update.Power)
		} else {
			if update.Power.IsNegative() {
				skipped++
				continue
			}
			next = update.Power
			total = total.Add(next.Sub(current))
		}

		if err := k.Powers.Set(ctx, update.Account, next.String()); err != nil {
			return err
		}
		applied++
	}
	if err := k.TotalPower.Set(ctx, total.String()); err != nil {
		return err
	}
	if err := k.Processed.Set(ctx, msgID); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"power_updated",
		sdk.NewAttribute("msg_id", msgID),
		sdk.NewAttribute("applied", fmt.Sprintf("%d", applied)),
		sdk.NewAttribute("skipped", fmt.Sprintf("%d", skipped)),
		sdk.NewAttribute("total_power", total.String()),
	))
	return nil
}

// GetPowerOf returns one account's mirrored power, zero when never synced.
func (k Keeper) GetPowerOf(ctx context.Context, account string) (sdkmath.Int, error) {
	raw, err := k.Powers.Get(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), nil
	}
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("corrupt power value: %q", raw)
	}
	return value, nil
}

// GetTotalPower returns the cached aggregate power.
func (k Keeper) GetTotalPower(ctx context.Context) (sdkmath.Int, error) {
	raw, err := k.TotalPower.Get(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), nil
	}
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("corrupt total power: %q", raw)
	}
	return value, nil
}
