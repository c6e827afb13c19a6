package scenario

import (
	"fmt"
	"io"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"

	"github.com/defiguardian/guardian/app"
	policytypes "github.com/defiguardian/guardian/x/policy/types"
	premiumtypes "github.com/defiguardian/guardian/x/premium/types"
	reservetypes "github.com/defiguardian/guardian/x/reserve/types"
	vaulttypes "github.com/defiguardian/guardian/x/vault/types"
)

// Report summarizes the ledgers after a run.
type Report struct {
	Scenario       string
	TotalShares    sdkmath.Int
	TotalPower     sdkmath.Int
	VaultBalance   sdkmath.Int
	ReserveBalance sdkmath.Int
	Reserved       sdkmath.Int
	Policies       uint64
	ClaimsApproved int
	ClaimsRejected int
	FeesPaid       sdkmath.Int
}

// Run executes the scenario against a fresh deployment and writes a report.
func Run(s Scenario, logger log.Logger, out io.Writer) (Report, error) {
	if err := s.Validate(); err != nil {
		return Report{}, err
	}

	a, err := app.NewGuardianApp(logger)
	if err != nil {
		return Report{}, err
	}
	if err := a.Bootstrap(premiumtypes.SplitConfig{LpBps: s.LpBps, ReserveBps: s.ReserveBps}); err != nil {
		return Report{}, err
	}
	budget, _ := parseInt(s.NativeBudget, "native_budget")
	if err := a.Vault.FundNative(a.CtxA, budget); err != nil {
		return Report{}, err
	}

	for i, d := range s.Deposits {
		amount, _ := parseInt(d.Amount, "amount")
		a.Asset.Mint(d.Account, amount)
		a.Asset.Approve(d.Account, amount)
		if _, err := a.Vault.Deposit(a.CtxA, d.Account, amount); err != nil {
			return Report{}, fmt.Errorf("deposits[%d]: %w", i, err)
		}
	}
	if err := a.DeliverAll(); err != nil {
		return Report{}, err
	}

	policyIDs := make([]string, len(s.Purchases))
	for i, p := range s.Purchases {
		premium, _ := parseInt(p.Premium, "premium")
		coverage, _ := parseInt(p.Coverage, "coverage")
		terms := premiumtypes.CoverageTerms{
			PoolID:    p.PoolID,
			Coverage:  coverage,
			StartUnix: p.StartUnix,
			EndUnix:   p.EndUnix,
			PolicyRef: p.PolicyRef,
		}

		fee, err := a.Premium.QuoteDeliveryFee(a.CtxA, p.Buyer, app.ChainGovernance, app.PolicyAddress, terms)
		if err != nil {
			return Report{}, fmt.Errorf("purchases[%d]: %w", i, err)
		}
		a.Asset.Mint(p.Buyer, premium)
		a.Asset.Approve(p.Buyer, premium)
		if _, _, err := a.Premium.BuyCoverage(a.CtxA, p.Buyer, app.ChainGovernance, app.PolicyAddress, terms, premium, fee); err != nil {
			return Report{}, fmt.Errorf("purchases[%d]: %w", i, err)
		}
		policyIDs[i] = policytypes.DerivePolicyID(p.PoolID, p.Buyer, coverage, p.StartUnix, p.EndUnix, p.PolicyRef)
	}
	if err := a.DeliverAll(); err != nil {
		return Report{}, err
	}

	report := Report{Scenario: s.Name}
	claimIDs := make([]uint64, len(s.Claims))
	for i, c := range s.Claims {
		amount, _ := parseInt(c.Amount, "amount")
		buyer := s.Purchases[c.Purchase].Buyer
		id, err := a.Claims.OpenClaim(a.CtxB, buyer, policyIDs[c.Purchase], buyer, amount, app.ChainAsset, app.ReserveAddress)
		if err != nil {
			return Report{}, fmt.Errorf("claims[%d]: %w", i, err)
		}
		claimIDs[i] = id
		for _, v := range c.Votes {
			if err := a.Claims.Vote(a.CtxB, id, v.Voter, v.Support); err != nil {
				return Report{}, fmt.Errorf("claims[%d] vote by %s: %w", i, v.Voter, err)
			}
		}
	}

	if len(s.Claims) > 0 {
		period := a.Claims.GetParams(a.CtxB).VotingPeriodSeconds
		a.AdvanceTime(time.Duration(period)*time.Second + time.Second)
		for i, id := range claimIDs {
			msgID, _, err := a.Claims.Finalize(a.CtxB, id, sdkmath.NewInt(1_000))
			if err != nil {
				return Report{}, fmt.Errorf("claims[%d] finalize: %w", i, err)
			}
			if msgID == "" {
				report.ClaimsRejected++
			} else {
				report.ClaimsApproved++
			}
		}
		if err := a.DeliverAll(); err != nil {
			return Report{}, err
		}
	}

	report.TotalShares, err = a.Vault.GetTotalShares(a.CtxA)
	if err != nil {
		return Report{}, err
	}
	report.TotalPower, err = a.Mirror.GetTotalPower(a.CtxB)
	if err != nil {
		return Report{}, err
	}
	report.Reserved, err = a.Reserve.Reserves(a.CtxA)
	if err != nil {
		return Report{}, err
	}
	report.VaultBalance = a.Asset.BalanceOf(a.CtxA, vaulttypes.ModuleAccount)
	report.ReserveBalance = a.Asset.BalanceOf(a.CtxA, reservetypes.ModuleAccount)
	report.Policies = a.Policy.GetPolicyCount(a.CtxB)
	report.FeesPaid = a.Channel.FeesPaid

	writeReport(out, report)
	return report, nil
}

func writeReport(out io.Writer, r Report) {
	fmt.Fprintf(out, "scenario %q\n", r.Scenario)
	fmt.Fprintf(out, "  total shares        %s\n", r.TotalShares)
	fmt.Fprintf(out, "  mirrored power      %s\n", r.TotalPower)
	fmt.Fprintf(out, "  vault balance       %s\n", r.VaultBalance)
	fmt.Fprintf(out, "  reserve balance     %s\n", r.ReserveBalance)
	fmt.Fprintf(out, "  earmarked reserve   %s\n", r.Reserved)
	fmt.Fprintf(out, "  policies registered %d\n", r.Policies)
	fmt.Fprintf(out, "  claims approved     %d\n", r.ClaimsApproved)
	fmt.Fprintf(out, "  claims rejected     %d\n", r.ClaimsRejected)
	fmt.Fprintf(out, "  channel fees paid   %s\n", r.FeesPaid)
}
