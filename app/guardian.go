// Package app wires the two ledgers of a guardian deployment: the asset
// ledger carrying the share vault, premium splitter and payout reserve, and
// the governance ledger carrying the policy registry, voting-power mirror and
// claim governance, connected by a local message channel.
package app

import (
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

	"github.com/defiguardian/guardian/x/bridge"
	claimskeeper "github.com/defiguardian/guardian/x/claims/keeper"
	claimstypes "github.com/defiguardian/guardian/x/claims/types"
	mirrorkeeper "github.com/defiguardian/guardian/x/mirror/keeper"
	mirrortypes "github.com/defiguardian/guardian/x/mirror/types"
	policykeeper "github.com/defiguardian/guardian/x/policy/keeper"
	policytypes "github.com/defiguardian/guardian/x/policy/types"
	premiumkeeper "github.com/defiguardian/guardian/x/premium/keeper"
	premiumtypes "github.com/defiguardian/guardian/x/premium/types"
	reservekeeper "github.com/defiguardian/guardian/x/reserve/keeper"
	reservetypes "github.com/defiguardian/guardian/x/reserve/types"
	vaultkeeper "github.com/defiguardian/guardian/x/vault/keeper"
	vaulttypes "github.com/defiguardian/guardian/x/vault/types"
)

const (
	// ChainAsset is the asset ledger's chain id on the channel.
	ChainAsset uint32 = 1

	// ChainGovernance is the governance ledger's chain id on the channel.
	ChainGovernance uint32 = 2

	// Authority is the owner address configured on every component.
	Authority = "guardian1gov"
)

// Component addresses: the opaque sender/receiver identities the channel and
// the allowlists work with.
var (
	VaultAddress    = []byte("guardian-vault")
	SplitterAddress = []byte("guardian-premium")
	ReserveAddress  = []byte("guardian-reserve")
	PolicyAddress   = []byte("guardian-policy")
	MirrorAddress   = []byte("guardian-mirror")
	ClaimsAddress   = []byte("guardian-claims")
)

// GuardianApp is a full two-ledger deployment backed by in-memory stores.
type GuardianApp struct {
	logger log.Logger

	Asset   *MemAsset
	NFT     *MemNFT
	Channel *bridge.LocalChannel

	Vault   vaultkeeper.Keeper
	Premium premiumkeeper.Keeper
	Reserve reservekeeper.Keeper
	Policy  policykeeper.Keeper
	Mirror  mirrorkeeper.Keeper
	Claims  claimskeeper.Keeper

	CtxA sdk.Context
	CtxB sdk.Context
}

// NewGuardianApp builds both ledgers with empty state. Owner configuration
// (allowlists, routes, fees, split) is applied separately; Bootstrap installs
// a working default.
func NewGuardianApp(logger log.Logger) (*GuardianApp, error) {
	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	vaultKey := storetypes.NewKVStoreKey(vaulttypes.StoreKey)
	premiumKey := storetypes.NewKVStoreKey(premiumtypes.StoreKey)
	reserveKey := storetypes.NewKVStoreKey(reservetypes.StoreKey)
	ctxA, err := mountLedger("guardian-asset-1", logger, vaultKey, premiumKey, reserveKey)
	if err != nil {
		return nil, err
	}

	policyKey := storetypes.NewKVStoreKey(policytypes.StoreKey)
	mirrorKey := storetypes.NewKVStoreKey(mirrortypes.StoreKey)
	claimsKey := storetypes.NewKVStoreKey(claimstypes.StoreKey)
	ctxB, err := mountLedger("guardian-gov-1", logger, policyKey, mirrorKey, claimsKey)
	if err != nil {
		return nil, err
	}

	app := &GuardianApp{
		logger:  logger,
		Asset:   NewMemAsset(),
		NFT:     NewMemNFT(),
		Channel: bridge.NewLocalChannel(logger),
		CtxA:    ctxA,
		CtxB:    ctxB,
	}

	app.Vault = vaultkeeper.NewKeeper(cdc, runtime.NewKVStoreService(vaultKey), app.Asset, Authority)
	app.Reserve = reservekeeper.NewKeeper(cdc, runtime.NewKVStoreService(reserveKey), app.Asset, Authority)
	app.Premium = premiumkeeper.NewKeeper(
		cdc,
		runtime.NewKVStoreService(premiumKey),
		app.Asset,
		app.Reserve,
		vaulttypes.ModuleAccount,
		reservetypes.ModuleAccount,
		Authority,
	)
	app.Policy = policykeeper.NewKeeper(cdc, runtime.NewKVStoreService(policyKey), app.NFT, Authority)
	app.Mirror = mirrorkeeper.NewKeeper(cdc, runtime.NewKVStoreService(mirrorKey), Authority)
	app.Claims = claimskeeper.NewKeeper(
		cdc,
		runtime.NewKVStoreService(claimsKey),
		app.Policy,
		app.Mirror,
		Authority,
	)

	app.Vault.SetChannel(app.Channel.Endpoint(ChainAsset, VaultAddress))
	app.Premium.SetChannel(app.Channel.Endpoint(ChainAsset, SplitterAddress))
	app.Claims.SetChannel(app.Channel.Endpoint(ChainGovernance, ClaimsAddress))

	app.Channel.RegisterHandler(ChainGovernance, PolicyAddress, app.Policy)
	app.Channel.RegisterHandler(ChainGovernance, MirrorAddress, app.Mirror)
	app.Channel.RegisterHandler(ChainAsset, ReserveAddress, app.Reserve)

	return app, nil
}

func mountLedger(chainID string, logger log.Logger, keys ...*storetypes.KVStoreKey) (sdk.Context, error) {
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, logger, storemetrics.NoOpMetrics{})
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return sdk.Context{}, err
	}

	header := tmproto.Header{
		ChainID: chainID,
		Height:  1,
		Time:    time.Unix(1_760_000_000, 0).UTC(),
	}
	return sdk.NewContext(cms, header, false, logger), nil
}

// Bootstrap applies a working owner configuration: fee schedules, allowlists,
// routes, gas budgets and the given premium split.
func (a *GuardianApp) Bootstrap(split premiumtypes.SplitConfig) error {
	a.Channel.SetFeeConfig(ChainAsset, bridge.FeeConfig{BaseFee: sdkmath.NewInt(10), GasPrice: sdkmath.ZeroInt()})
	a.Channel.SetFeeConfig(ChainGovernance, bridge.FeeConfig{BaseFee: sdkmath.NewInt(10), GasPrice: sdkmath.ZeroInt()})

	steps := []func() error{
		func() error { return a.Vault.SetMirrorRoute(a.CtxA, Authority, ChainGovernance, MirrorAddress) },
		func() error { return a.Vault.SetGasConfig(a.CtxA, Authority, ChainGovernance, 200_000) },
		func() error { return a.Premium.SetSplit(a.CtxA, Authority, split) },
		func() error { return a.Premium.AllowDestination(a.CtxA, Authority, ChainGovernance) },
		func() error { return a.Premium.AllowReceiver(a.CtxA, Authority, PolicyAddress) },
		func() error { return a.Premium.SetGasConfig(a.CtxA, Authority, ChainGovernance, 200_000) },
		func() error { return a.Reserve.AllowSource(a.CtxA, Authority, ChainGovernance) },
		func() error { return a.Reserve.AllowSender(a.CtxA, Authority, ClaimsAddress) },
		func() error { return a.Policy.AllowSource(a.CtxB, Authority, ChainAsset) },
		func() error { return a.Policy.AllowSender(a.CtxB, Authority, SplitterAddress) },
		func() error { return a.Mirror.AllowSource(a.CtxB, Authority, ChainAsset) },
		func() error { return a.Mirror.AllowSender(a.CtxB, Authority, VaultAddress) },
		func() error { return a.Claims.AllowDestination(a.CtxB, Authority, ChainAsset) },
		func() error { return a.Claims.AllowReceiver(a.CtxB, Authority, ReserveAddress) },
		func() error { return a.Claims.SetGasConfig(a.CtxB, Authority, ChainAsset, 200_000) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceTime moves both ledgers' clocks forward by d and bumps heights.
func (a *GuardianApp) AdvanceTime(d time.Duration) {
	a.CtxA = a.CtxA.WithBlockTime(a.CtxA.BlockTime().Add(d)).WithBlockHeight(a.CtxA.BlockHeight() + 1)
	a.CtxB = a.CtxB.WithBlockTime(a.CtxB.BlockTime().Add(d)).WithBlockHeight(a.CtxB.BlockHeight() + 1)
}

// DeliverAll drains the channel in both directions. Each delivery error stops
// the drain and is returned; the failing envelope is recorded by the channel
// for Redeliver.
func (a *GuardianApp) DeliverAll() error {
	for {
		_, found, err := a.Channel.DeliverNext(a.CtxB, ChainGovernance)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		_, found, err = a.Channel.DeliverNext(a.CtxA, ChainAsset)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
	}
}
