package keeper_test

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	bridgetypes "github.com/defiguardian/guardian/x/bridge/types"
	"github.com/defiguardian/guardian/x/policy/keeper"
	"github.com/defiguardian/guardian/x/policy/types"
)

const (
	authority    = "guardian1gov"
	splitterAddr = "guardian-splitter"
	assetChainID = uint32(1)
)

type mockNFT struct {
	owners map[string]string
	mints  int
}

func newMockNFT() *mockNFT {
	return &mockNFT{owners: make(map[string]string)}
}

func (n *mockNFT) Mint(_ context.Context, to, tokenID string) error {
	n.owners[tokenID] = to
	n.mints++
	return nil
}

func setupKeeper(t *testing.T) (keeper.Keeper, *mockNFT, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "guardian-gov-test-1",
		Height:  1,
		Time:    time.Unix(1_760_000_000, 0).UTC(),
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	nft := newMockNFT()
	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(storeKey), nft, authority)

	require.NoError(t, k.AllowSource(ctx, authority, assetChainID))
	require.NoError(t, k.AllowSender(ctx, authority, []byte(splitterAddr)))

	return k, nft, ctx
}

func termsPayload(t *testing.T, buyer, ref string) []byte {
	t.Helper()
	raw, err := bridgetypes.EncodePayload(bridgetypes.PolicyTermsPayload{
		PoolID:    7,
		Buyer:     buyer,
		Coverage:  sdkmath.NewInt(1_000),
		StartUnix: 1_760_000_000,
		EndUnix:   1_770_000_000,
		PolicyRef: ref,
	})
	require.NoError(t, err)
	return raw
}

func TestOnMessageRegistersPolicyAndMintsRecord(t *testing.T) {
	k, nft, ctx := setupKeeper(t)

	err := k.OnMessage(ctx, "msg-1", assetChainID, []byte(splitterAddr), termsPayload(t, "buyer-1", "flight-42"))
	require.NoError(t, err)

	policyID := types.DerivePolicyID(7, "buyer-1", sdkmath.NewInt(1_000), 1_760_000_000, 1_770_000_000, "flight-42")
	policy, err := k.GetPolicy(ctx, policyID)
	require.NoError(t, err)
	require.True(t, policy.Active)
	require.Equal(t, "buyer-1", policy.Buyer)
	require.Equal(t, sdkmath.NewInt(1_000), policy.Coverage)
	require.Equal(t, policyID, policy.TokenID)

	require.Equal(t, "buyer-1", nft.owners[policyID])
	require.Equal(t, uint64(1), k.GetPolicyCount(ctx))
}

func TestOnMessageSkipsDuplicateDelivery(t *testing.T) {
	k, nft, ctx := setupKeeper(t)

	payload := termsPayload(t, "buyer-1", "flight-42")
	require.NoError(t, k.OnMessage(ctx, "msg-1", assetChainID, []byte(splitterAddr), payload))
	require.NoError(t, k.OnMessage(ctx, "msg-1", assetChainID, []byte(splitterAddr), payload))

	require.Equal(t, 1, nft.mints)
	require.Equal(t, uint64(1), k.GetPolicyCount(ctx))
}

func TestIdenticalTermsCollideOnPolicyID(t *testing.T) {
	k, nft, ctx := setupKeeper(t)

	// Two distinct messages carrying identical terms hash to the same policy
	// id: the second registration overwrites the first record and re-mints.
	payload := termsPayload(t, "buyer-1", "flight-42")
	require.NoError(t, k.OnMessage(ctx, "msg-1", assetChainID, []byte(splitterAddr), payload))
	require.NoError(t, k.OnMessage(ctx, "msg-2", assetChainID, []byte(splitterAddr), payload))

	require.Equal(t, 2, nft.mints)
	require.Equal(t, uint64(2), k.GetPolicyCount(ctx))

	policyID := types.DerivePolicyID(7, "buyer-1", sdkmath.NewInt(1_000), 1_760_000_000, 1_770_000_000, "flight-42")
	policy, err := k.GetPolicy(ctx, policyID)
	require.NoError(t, err)
	require.True(t, policy.Active)
}

func TestDistinctTermsProduceDistinctPolicies(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	require.NoError(t, k.OnMessage(ctx, "msg-1", assetChainID, []byte(splitterAddr), termsPayload(t, "buyer-1", "flight-42")))
	require.NoError(t, k.OnMessage(ctx, "msg-2", assetChainID, []byte(splitterAddr), termsPayload(t, "buyer-2", "flight-42")))
	require.NoError(t, k.OnMessage(ctx, "msg-3", assetChainID, []byte(splitterAddr), termsPayload(t, "buyer-1", "quake-7")))

	require.Equal(t, uint64(3), k.GetPolicyCount(ctx))
}

func TestOnMessageRejectsUnlistedOrigin(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	payload := termsPayload(t, "buyer-1", "flight-42")

	err := k.OnMessage(ctx, "msg-1", uint32(9), []byte(splitterAddr), payload)
	require.ErrorIs(t, err, types.ErrSourceNotAllowed)

	err = k.OnMessage(ctx, "msg-1", assetChainID, []byte("impostor"), payload)
	require.ErrorIs(t, err, types.ErrSenderNotAllowed)

	require.Equal(t, uint64(0), k.GetPolicyCount(ctx))
}

func TestGetPolicyReturnsInactiveZeroRecordForUnknownID(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	policy, err := k.GetPolicy(ctx, "deadbeef")
	require.NoError(t, err)
	require.False(t, policy.Active)
	require.True(t, policy.Coverage.IsZero())
	require.Equal(t, "deadbeef", policy.ID)
}
