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
	"github.com/defiguardian/guardian/x/premium/types"
)

// AssetKeeper defines the expected premium asset interface.
type AssetKeeper interface {
	TransferFrom(ctx context.Context, payer, to string, amount sdkmath.Int) error
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, account string) sdkmath.Int
}

// ReserveKeeper defines the expected payout reserve interface.
type ReserveKeeper interface {
	Reserve(ctx context.Context, amount sdkmath.Int) error
}

// Keeper accepts premiums, splits them between the share vault and the payout
// reserve, and forwards policy terms to the registry ledger.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	asset          AssetKeeper
	reserve        ReserveKeeper
	channel        bridgetypes.Channel
	vaultAccount   string
	reserveAccount string
	guard          *sdkutil.ReentryGuard

	Split            collections.Item[string]
	AllowedChains    collections.KeySet[uint64]
	AllowedReceivers collections.KeySet[string]
	GasConfigs       collections.Map[uint64, uint64]
}

// NewKeeper creates a new premium splitter keeper. vaultAccount and
// reserveAccount are the payout targets on the premium asset ledger.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	asset AssetKeeper,
	reserve ReserveKeeper,
	vaultAccount string,
	reserveAccount string,
	authority string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:            cdc,
		storeService:   storeService,
		authority:      authority,
		asset:          asset,
		reserve:        reserve,
		vaultAccount:   vaultAccount,
		reserveAccount: reserveAccount,
		guard:          sdkutil.NewReentryGuard(),
		Split: collections.NewItem(
			sb,
			collections.NewPrefix(types.SplitConfigKey),
			"split_config",
			collections.StringValue,
		),
		AllowedChains: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AllowedChainKeyPrefix),
			"allowed_chains",
			collections.Uint64Key,
		),
		AllowedReceivers: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AllowedReceiverKeyPrefix),
			"allowed_receivers",
			collections.StringKey,
		),
		GasConfigs: collections.NewMap(
			sb,
			collections.NewPrefix(types.GasConfigKeyPrefix),
			"gas_configs",
			collections.Uint64Key,
			collections.Uint64Value,
		),
	}
}

// SetChannel wires the outbound message channel.
func (k *Keeper) SetChannel(channel bridgetypes.Channel) {
	k.channel = channel
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// SetSplit configures the premium split. Authority only.
func (k Keeper) SetSplit(ctx context.Context, caller string, split types.SplitConfig) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if err := split.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(split)
	if err != nil {
		return err
	}
	return k.Split.Set(ctx, string(raw))
}

// AllowDestination adds a destination chain to the outbound allowlist. Authority only.
func (k Keeper) AllowDestination(ctx context.Context, caller string, chainID uint32) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	return k.AllowedChains.Set(ctx, uint64(chainID))
}

// AllowReceiver adds a destination receiver to the outbound allowlist. Authority only.
func (k Keeper) AllowReceiver(ctx context.Context, caller string, receiver []byte) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if len(receiver) == 0 {
		return fmt.Errorf("receiver cannot be empty")
	}
	return k.AllowedReceivers.Set(ctx, hex.EncodeToString(receiver))
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

// GetSplit returns the configured premium split.
func (k Keeper) GetSplit(ctx context.Context) (types.SplitConfig, error) {
	raw, err := k.Split.Get(ctx)
	if err != nil {
		return types.SplitConfig{}, types.ErrSplitNotConfigured
	}
	var split types.SplitConfig
	if err := json.Unmarshal([]byte(raw), &split); err != nil {
		return types.SplitConfig{}, fmt.Errorf("decode split config: %w", err)
	}
	return split, nil
}
