package keeper

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/defiguardian/guardian/internal/sdkutil"
	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/policy/types"
)

// NFTKeeper defines the expected non-fungible record issuer.
type NFTKeeper interface {
	Mint(ctx context.Context, to, tokenID string) error
}

// Keeper receives policy terms off the channel, derives policy identities and
// mints ownership records.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	authority    string

	nft NFTKeeper

	Policies       collections.Map[string, string]
	Processed      collections.KeySet[string]
	AllowedSources collections.KeySet[uint64]
	AllowedSenders collections.KeySet[string]
	PolicyCount    collections.Item[uint64]
}

var _ bridgetypes.InboundHandler = Keeper{}

// NewKeeper creates a new policy registry keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	nft NFTKeeper,
	authority string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		authority:    authority,
		nft:          nft,
		Policies: collections.NewMap(
			sb,
			collections.NewPrefix(types.PolicyKeyPrefix),
			"policies",
			collections.StringKey,
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
		PolicyCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.PolicyCountKey),
			"policy_count",
			collections.Uint64Value,
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

// OnMessage registers the policy carried by an inbound terms message and
// mints its ownership record to the buyer.
//
// Dedup is by message id only. The policy id is a hash of the terms, so two
// distinct messages with identical terms overwrite one record; whether that
// needs content-hash dedup on top is an open policy question, recorded in
// DESIGN.md rather than resolved here.
func (k Keeper) OnMessage(ctx context.Context, msgID string, srcChain uint32, sender, payload []byte) error {
	if seen, err := k.Processed.Has(ctx, msgID); err == nil && seen {
		sdkutil.EmitEvent(ctx, sdk.NewEvent(
			"policy_message_skipped",
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

	terms, err := bridgetypes.DecodePolicyTerms(payload)
	if err != nil {
		return err
	}
	if err := terms.Validate(); err != nil {
		return err
	}

	policyID := types.DerivePolicyID(terms.PoolID, terms.Buyer, terms.Coverage, terms.StartUnix, terms.EndUnix, terms.PolicyRef)
	policy := types.Policy{
		ID:        policyID,
		PoolID:    terms.PoolID,
		Buyer:     terms.Buyer,
		Coverage:  terms.Coverage,
		StartUnix: terms.StartUnix,
		EndUnix:   terms.EndUnix,
		PolicyRef: terms.PolicyRef,
		TokenID:   policyID,
		Active:    true,
	}

	if err := k.nft.Mint(ctx, policy.Buyer, policy.TokenID); err != nil {
		return err
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	if err := k.Policies.Set(ctx, policyID, string(raw)); err != nil {
		return err
	}
	count, err := k.PolicyCount.Get(ctx)
	if err != nil {
		count = 0
	}
	if err := k.PolicyCount.Set(ctx, count+1); err != nil {
		return err
	}
	if err := k.Processed.Set(ctx, msgID); err != nil {
		return err
	}

	sdkutil.EmitEvent(ctx, sdk.NewEvent(
		"policy_registered",
		sdk.NewAttribute("policy_id", policyID),
		sdk.NewAttribute("buyer", policy.Buyer),
		sdk.NewAttribute("coverage", policy.Coverage.String()),
		sdk.NewAttribute("msg_id", msgID),
	))
	return nil
}

// GetPolicy returns the stored policy, or an inactive zero record when the id
// is unknown. Unknown is not an error.
func (k Keeper) GetPolicy(ctx context.Context, policyID string) (types.Policy, error) {
	raw, err := k.Policies.Get(ctx, policyID)
	if err != nil {
		return types.EmptyPolicy(policyID), nil
	}
	var policy types.Policy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		return types.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	return policy, nil
}

// GetPolicyCount returns the number of registration messages applied.
func (k Keeper) GetPolicyCount(ctx context.Context) uint64 {
	count, err := k.PolicyCount.Get(ctx)
	if err != nil {
		return 0
	}
	return count
}
