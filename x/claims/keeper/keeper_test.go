package keeper_test

import (
	"context"
	"fmt"
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
	"github.com/defiguardian/guardian/x/claims/keeper"
	"github.com/defiguardian/guardian/x/claims/types"
	policytypes "github.com/defiguardian/guardian/x/policy/types"
)

const (
	authority      = "guardian1gov"
	assetChainID   = uint32(1)
	reserveAddr    = "guardian-reserve"
	activePolicyID = "policy-active"
	lapsedPolicyID = "policy-lapsed"
	holder         = "buyer-1"

	baseUnix = int64(1_760_000_000)
)

type mockPolicies struct {
	records map[string]policytypes.Policy
}

func (p *mockPolicies) GetPolicy(_ context.Context, policyID string) (policytypes.Policy, error) {
	if record, ok := p.records[policyID]; ok {
		return record, nil
	}
	return policytypes.EmptyPolicy(policyID), nil
}

type mockPowers struct {
	powers map[string]sdkmath.Int
	total  sdkmath.Int
}

func (p *mockPowers) GetPowerOf(_ context.Context, account string) (sdkmath.Int, error) {
	if power, ok := p.powers[account]; ok {
		return power, nil
	}
	return sdkmath.ZeroInt(), nil
}

func (p *mockPowers) GetTotalPower(_ context.Context) (sdkmath.Int, error) {
	return p.total, nil
}

type mockChannel struct {
	fee  sdkmath.Int
	sent [][]byte
}

func (c *mockChannel) QuoteFee(_ context.Context, _ uint32, _, _ []byte, _ uint64) (sdkmath.Int, error) {
	return c.fee, nil
}

func (c *mockChannel) Send(_ context.Context, _ uint32, _, payload []byte, _ uint64, _ sdkmath.Int) (string, error) {
	c.sent = append(c.sent, payload)
	return fmt.Sprintf("msg-%d", len(c.sent)), nil
}

func setupKeeper(t *testing.T) (keeper.Keeper, *mockPowers, *mockChannel, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "guardian-gov-test-1",
		Height:  1,
		Time:    time.Unix(baseUnix, 0).UTC(),
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	policies := &mockPolicies{records: map[string]policytypes.Policy{
		activePolicyID: {
			ID:        activePolicyID,
			PoolID:    7,
			Buyer:     holder,
			Coverage:  sdkmath.NewInt(1_000),
			StartUnix: baseUnix - 1_000,
			EndUnix:   baseUnix + 1_000_000,
			Active:    true,
		},
		lapsedPolicyID: {
			ID:        lapsedPolicyID,
			PoolID:    7,
			Buyer:     holder,
			Coverage:  sdkmath.NewInt(1_000),
			StartUnix: baseUnix - 2_000,
			EndUnix:   baseUnix - 1_000,
			Active:    true,
		},
	}}
	powers := &mockPowers{
		powers: map[string]sdkmath.Int{},
		total:  sdkmath.NewInt(10_000),
	}
	channel := &mockChannel{fee: sdkmath.NewInt(10)}

	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(storeKey), policies, powers, authority)
	k.SetChannel(channel)

	require.NoError(t, k.AllowDestination(ctx, authority, assetChainID))
	require.NoError(t, k.AllowReceiver(ctx, authority, []byte(reserveAddr)))
	require.NoError(t, k.SetGasConfig(ctx, authority, assetChainID, 200_000))

	return k, powers, channel, ctx
}

func openClaim(t *testing.T, k keeper.Keeper, ctx sdk.Context, amount int64) uint64 {
	t.Helper()
	id, err := k.OpenClaim(ctx, holder, activePolicyID, holder, sdkmath.NewInt(amount), assetChainID, []byte(reserveAddr))
	require.NoError(t, err)
	return id
}

func afterVoting(ctx sdk.Context) sdk.Context {
	period := types.DefaultParams().VotingPeriodSeconds
	return ctx.WithBlockTime(time.Unix(baseUnix+period+1, 0).UTC())
}

func TestOpenClaimValidatesPolicyAndAmount(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)

	_, err := k.OpenClaim(ctx, holder, "unknown", holder, sdkmath.NewInt(100), assetChainID, []byte(reserveAddr))
	require.ErrorIs(t, err, types.ErrPolicyInactive)

	_, err = k.OpenClaim(ctx, "stranger", activePolicyID, "stranger", sdkmath.NewInt(100), assetChainID, []byte(reserveAddr))
	require.ErrorIs(t, err, types.ErrNotPolicyHolder)

	_, err = k.OpenClaim(ctx, holder, lapsedPolicyID, holder, sdkmath.NewInt(100), assetChainID, []byte(reserveAddr))
	require.ErrorIs(t, err, types.ErrOutsideCoverage)

	_, err = k.OpenClaim(ctx, holder, activePolicyID, holder, sdkmath.NewInt(1_001), assetChainID, []byte(reserveAddr))
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = k.OpenClaim(ctx, holder, activePolicyID, holder, sdkmath.ZeroInt(), assetChainID, []byte(reserveAddr))
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	// The authority may open a claim on the holder's behalf.
	id, err := k.OpenClaim(ctx, authority, activePolicyID, holder, sdkmath.NewInt(100), assetChainID, []byte(reserveAddr))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
}

func TestVoteTalliesLiveWeightOncePerVoter(t *testing.T) {
	k, powers, _, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)

	powers.powers["voter-1"] = sdkmath.NewInt(3_000)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))
	require.ErrorIs(t, k.Vote(ctx, id, "voter-1", false), types.ErrAlreadyVoted)

	powers.powers["voter-2"] = sdkmath.NewInt(1_000)
	require.NoError(t, k.Vote(ctx, id, "voter-2", false))

	claim, err := k.GetClaim(ctx, id)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(3_000), claim.YesWeight)
	require.Equal(t, sdkmath.NewInt(1_000), claim.NoWeight)
}

func TestVoteRejectsClosedWindow(t *testing.T) {
	k, powers, _, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)
	powers.powers["voter-1"] = sdkmath.NewInt(3_000)

	err := k.Vote(afterVoting(ctx), id, "voter-1", true)
	require.ErrorIs(t, err, types.ErrVoteWindowClosed)
}

func TestFinalizeRejectsOpenWindow(t *testing.T) {
	k, powers, _, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)
	powers.powers["voter-1"] = sdkmath.NewInt(3_000)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	// Even a unanimous claim cannot finalize before the window closes.
	_, _, err := k.Finalize(ctx, id, sdkmath.NewInt(10))
	require.ErrorIs(t, err, types.ErrVoteWindowOpen)

	// Exactly at the closing second the window still counts as open.
	atEnd := ctx.WithBlockTime(time.Unix(baseUnix+types.DefaultParams().VotingPeriodSeconds, 0).UTC())
	_, _, err = k.Finalize(atEnd, id, sdkmath.NewInt(10))
	require.ErrorIs(t, err, types.ErrVoteWindowOpen)
}

func TestFinalizeApprovesAtExactQuorum(t *testing.T) {
	k, powers, channel, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)

	// Total power 10000, quorum 2000 bps: turnout of exactly 2000 qualifies.
	powers.powers["voter-1"] = sdkmath.NewInt(2_000)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	msgID, refund, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.NoError(t, err)
	require.NotEmpty(t, msgID)
	require.Equal(t, sdkmath.NewInt(15), refund)

	require.Len(t, channel.sent, 1)
	payout, err := bridgetypes.DecodePayout(channel.sent[0])
	require.NoError(t, err)
	require.Equal(t, bridgetypes.PayoutMessageTag, payout.Tag)
	require.Equal(t, id, payout.ClaimID)
	require.Equal(t, holder, payout.Claimant)
	require.Equal(t, sdkmath.NewInt(400), payout.Amount)

	claim, err := k.GetClaim(ctx, id)
	require.NoError(t, err)
	require.True(t, claim.Finalized)
	require.True(t, claim.Approved)
}

func TestFinalizeRejectsOneUnitBelowQuorum(t *testing.T) {
	k, powers, channel, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)

	powers.powers["voter-1"] = sdkmath.NewInt(1_999)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	msgID, refund, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.NoError(t, err)
	require.Empty(t, msgID)
	// A rejected claim sends nothing and returns the full attachment.
	require.Equal(t, sdkmath.NewInt(25), refund)
	require.Empty(t, channel.sent)

	claim, err := k.GetClaim(ctx, id)
	require.NoError(t, err)
	require.True(t, claim.Finalized)
	require.False(t, claim.Approved)
}

func TestFinalizeRequiresStrictMajority(t *testing.T) {
	k, powers, channel, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)

	// Quorum is met but yes does not exceed no.
	powers.powers["voter-1"] = sdkmath.NewInt(1_500)
	powers.powers["voter-2"] = sdkmath.NewInt(1_500)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))
	require.NoError(t, k.Vote(ctx, id, "voter-2", false))

	msgID, _, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.NoError(t, err)
	require.Empty(t, msgID)
	require.Empty(t, channel.sent)
}

func TestFinalizeTreatsZeroTotalPowerAsOne(t *testing.T) {
	k, powers, channel, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)
	powers.total = sdkmath.ZeroInt()

	// With no mirrored power at all, any positive yes turnout both meets
	// quorum and carries the majority.
	powers.powers["voter-1"] = sdkmath.NewInt(1)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	msgID, _, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.NoError(t, err)
	require.NotEmpty(t, msgID)
	require.Len(t, channel.sent, 1)
}

func TestFinalizeIsOneShot(t *testing.T) {
	k, powers, _, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)
	powers.powers["voter-1"] = sdkmath.NewInt(2_000)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	_, _, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.NoError(t, err)

	_, _, err = k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(25))
	require.ErrorIs(t, err, types.ErrAlreadyFinalized)
}

func TestFinalizeRequiresFeeCoverageOnApproval(t *testing.T) {
	k, powers, channel, ctx := setupKeeper(t)
	id := openClaim(t, k, ctx, 400)
	powers.powers["voter-1"] = sdkmath.NewInt(2_000)
	require.NoError(t, k.Vote(ctx, id, "voter-1", true))

	_, _, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(9))
	require.ErrorIs(t, err, types.ErrInsufficientNativeFee)
	require.Empty(t, channel.sent)

	// The claim stays open for a retry with the right fee.
	msgID, _, err := k.Finalize(afterVoting(ctx), id, sdkmath.NewInt(10))
	require.NoError(t, err)
	require.NotEmpty(t, msgID)
}
