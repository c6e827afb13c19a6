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

	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/claims/types"
	policytypes "github.com/defiguardian/guardian/x/policy/types"
)

// PolicySource provides policy lookups for claim validation.
type PolicySource interface {
	GetPolicy(ctx context.Context, policyID string) (policytypes.Policy, error)
}

// PowerSource provides mirrored voting power for tallying.
type PowerSource interface {
	GetPowerOf(ctx context.Context, account string) (sdkmath.Int, error)
	GetTotalPower(ctx context.Context) (sdkmath.Int, error)
}

// Keeper runs time-boxed, power-weighted claim voting and dispatches payout
// instructions for approved claims.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	policies PolicySource
	powers   PowerSource
	channel  bridgetypes.Channel

	Claims           collections.Map[uint64, string]
	ClaimCount       collections.Item[uint64]
	Voted            collections.KeySet[string]
	Params           collections.Item[string]
	AllowedChains    collections.KeySet[uint64]
	AllowedReceivers collections.KeySet[string]
	GasConfigs       collections.Map[uint64, uint64]
}

// NewKeeper creates a new claim governance keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	policies PolicySource,
	powers PowerSource,
	authority string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		authority:    authority,
		policies:     policies,
		powers:       powers,
		Claims: collections.NewMap(
			sb,
			collections.NewPrefix(types.ClaimKeyPrefix),
			"claims",
			collections.Uint64Key,
			collections.StringValue,
		),
		ClaimCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.ClaimCountKey),
			"claim_count",
			collections.Uint64Value,
		),
		Voted: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.VotedKeyPrefix),
			"voted",
			collections.StringKey,
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
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

// SetChannel wires the outbound message channel used for payout dispatch.
func (k *Keeper) SetChannel(channel bridgetypes.Channel) {
	k.channel = channel
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// SetParams configures voting period and quorum. Authority only.
func (k Keeper) SetParams(ctx context.Context, caller string, params types.Params) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if err := params.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return k.Params.Set(ctx, string(raw))
}

// GetParams returns the voting configuration, defaulted when unset.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	raw, err := k.Params.Get(ctx)
	if err != nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// AllowDestination adds a payout chain to the outbound allowlist. Authority only.
func (k Keeper) AllowDestination(ctx context.Context, caller string, chainID uint32) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	return k.AllowedChains.Set(ctx, uint64(chainID))
}

// AllowReceiver adds a payout receiver to the outbound allowlist. Authority only.
func (k Keeper) AllowReceiver(ctx context.Context, caller string, receiver []byte) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if len(receiver) == 0 {
		return fmt.Errorf("receiver cannot be empty")
	}
	return k.AllowedReceivers.Set(ctx, hex.EncodeToString(receiver))
}

// SetGasConfig configures the gas budget for one payout chain. Authority only.
func (k Keeper) SetGasConfig(ctx context.Context, caller string, chainID uint32, gasLimit uint64) error {
	if caller != k.authority {
		return types.ErrUnauthorized
	}
	if gasLimit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}
	return k.GasConfigs.Set(ctx, uint64(chainID), gasLimit)
}

// GetClaim loads one claim.
func (k Keeper) GetClaim(ctx context.Context, claimID uint64) (types.Claim, error) {
	raw, err := k.Claims.Get(ctx, claimID)
	if err != nil {
		return types.Claim{}, fmt.Errorf("%w: %d", types.ErrUnknownClaim, claimID)
	}
	var claim types.Claim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil {
		return types.Claim{}, fmt.Errorf("decode claim: %w", err)
	}
	return claim, nil
}

func (k Keeper) setClaim(ctx context.Context, claim types.Claim) error {
	raw, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	return k.Claims.Set(ctx, claim.ID, string(raw))
}

func (k Keeper) nextClaimID(ctx context.Context) (uint64, error) {
	count, err := k.ClaimCount.Get(ctx)
	if err != nil {
		count = 0
	}
	count++
	if err := k.ClaimCount.Set(ctx, count); err != nil {
		return 0, err
	}
	return count, nil
}

func votedKey(claimID uint64, voter string) string {
	return fmt.Sprintf("%d|%s", claimID, voter)
}
