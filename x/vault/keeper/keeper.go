package keeper

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/vault/types"
)

// AssetKeeper defines the expected premium asset interface.
type AssetKeeper interface {
	TransferFrom(ctx context.Context, payer, to string, amount sdkmath.Int) error
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, account string) sdkmath.Int
}

// Keeper custodies the premium asset, issues proportional shares to LPs and
// mirrors voting power to the governance ledger after every balance change.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	asset   AssetKeeper
	channel bridgetypes.Channel
	guard   *sdkutil.ReentryGuard

	Stakes           collections.Map[string, string]
	WithdrawRequests collections.Map[string, string]
	TotalShares      collections.Item[string]
	NativeBalance    collections.Item[string]
	GasConfigs       collections.Map[uint64, uint64]
	MirrorRoute      collections.Item[string]
	Cooldown         collections.Item[uint64]
}

// NewKeeper creates a new vault keeper.
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
		Stakes: collections.NewMap(
			sb,
			collections.NewPrefix(types.StakeKeyPrefix),
			"stakes",
			collections.StringKey,
			collections.StringValue,
		),
		WithdrawRequests: collections.NewMap(
			sb,
			collections.NewPrefix(types.WithdrawRequestKeyPrefix),
			"withdraw_requests",
			collections.StringKey,
			collections.StringValue,
		),
		TotalShares: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalSharesKey),
			"total_shares",
			collections.StringValue,
		),
		NativeBalance: collections.NewItem(
			sb,
			collections.NewPrefix(types.NativeBalanceKey),
			"native_balance",
			collections.StringValue,
		),
		GasConfigs: collections.NewMap(
			sb,
			collections.NewPrefix(types.GasConfigKeyPrefix),
			"gas_configs",
			collections.Uint64Key,
			collections.Uint64Value,
		),
		MirrorRoute: collections.NewItem(
			sb,
			collections.NewPrefix(types.MirrorRouteKey),
			"mirror_route",
			collections.StringValue,
		),
		Cooldown: collections.NewItem(
			sb,
			collections.NewPrefix(types.CooldownKey),
			"cooldown_seconds",
			collections.Uint64Value,
		),
	}
}

// SetChannel wires the outbound message channel used for power syncs.
func (k *Keeper) SetChannel(channel bridgetypes.Channel) {
	k.channel = channel
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// SetCooldown configures the withdrawal cooldown. Authority only.
func (k Keeper) SetCooldown(ctx context.Context, caller string, seconds uint64) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if seconds == 0 {
		return fmt.Errorf("cooldown must be positive")
	}
	return k.Cooldown.Set(ctx, seconds)
}

// SetMirrorRoute configures the voting-power mirror destination. Authority only.
func (k Keeper) SetMirrorRoute(ctx context.Context, caller string, chainID uint32, receiver []byte) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if len(receiver) == 0 {
		return fmt.Errorf("mirror receiver cannot be empty")
	}
	raw, err := json.Marshal(types.MirrorRoute{ChainID: chainID, Receiver: hex.EncodeToString(receiver)})
	if err != nil {
		return err
	}
	return k.MirrorRoute.Set(ctx, string(raw))
}

// SetGasConfig configures the gas budget for one destination chain. Authority only.
func (k Keeper) SetGasConfig(ctx context.Context, caller string, chainID uint32, gasLimit uint64) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if gasLimit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}
	return k.GasConfigs.Set(ctx, uint64(chainID), gasLimit)
}

// FundNative credits the vault's native fee budget for power syncs.
func (k Keeper) FundNative(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	balance, err := k.readInt(ctx, k.NativeBalance)
	if err != nil {
		return err
	}
	return k.NativeBalance.Set(ctx, balance.Add(amount).String())
}

// GetStake loads one LP's stake, zero-valued when the LP never deposited.
func (k Keeper) GetStake(ctx context.Context, owner string) (types.Stake, error) {
	raw, err := k.Stakes.Get(ctx, owner)
	if err != nil {
		return types.Stake{Owner: owner, Shares: sdkmath.ZeroInt()}, nil
	}
	var stake types.Stake
	if err := json.Unmarshal([]byte(raw), &stake); err != nil {
		return types.Stake{}, fmt.Errorf("decode stake: %w", err)
	}
	return stake, nil
}

// GetWithdrawRequest loads the pending request for owner, if any.
func (k Keeper) GetWithdrawRequest(ctx context.Context, owner string) (types.WithdrawRequest, bool, error) {
	raw, err := k.WithdrawRequests.Get(ctx, owner)
	if err != nil {
		return types.WithdrawRequest{}, false, nil
	}
	var req types.WithdrawRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return types.WithdrawRequest{}, false, fmt.Errorf("decode withdraw request: %w", err)
	}
	return req, true, nil
}

// GetTotalShares returns the outstanding share supply.
func (k Keeper) GetTotalShares(ctx context.Context) (sdkmath.Int, error) {
	return k.readInt(ctx, k.TotalShares)
}

// GetNativeBalance returns the remaining sync fee budget.
func (k Keeper) GetNativeBalance(ctx context.Context) (sdkmath.Int, error) {
	return k.readInt(ctx, k.NativeBalance)
}

func (k Keeper) cooldownSeconds(ctx context.Context) uint64 {
	seconds, err := k.Cooldown.Get(ctx)
	if err != nil || seconds == 0 {
		return types.DefaultCooldownSeconds
	}
	return seconds
}

func (k Keeper) readInt(ctx context.Context, item collections.Item[string]) (sdkmath.Int, error) {
	raw, err := item.Get(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), nil
	}
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("corrupt integer value: %q", raw)
	}
	return value, nil
}

func (k Keeper) setStake(ctx context.Context, stake types.Stake) error {
	raw, err := json.Marshal(stake)
	if err != nil {
		return err
	}
	return k.Stakes.Set(ctx, stake.Owner, string(raw))
}
