// Package scenario runs scripted end-to-end protocol flows against an
// in-memory two-ledger deployment. Scenarios are plain YAML so operators can
// rehearse configuration changes and claim flows without touching a network.
package scenario

import (
	"fmt"
	"os"

	sdkmath "cosmossdk.io/math"
	"gopkg.in/yaml.v3"
)

// Deposit is one liquidity provider joining the vault.
type Deposit struct {
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
}

// Purchase is one coverage purchase against the splitter.
type Purchase struct {
	Buyer     string `yaml:"buyer"`
	Premium   string `yaml:"premium"`
	PoolID    uint64 `yaml:"pool_id"`
	Coverage  string `yaml:"coverage"`
	StartUnix int64  `yaml:"start_unix"`
	EndUnix   int64  `yaml:"end_unix"`
	PolicyRef string `yaml:"policy_ref"`
}

// Vote is one governance vote on a claim.
type Vote struct {
	Voter   string `yaml:"voter"`
	Support bool   `yaml:"support"`
}

// Claim is one claim opened against a prior purchase, voted and finalized.
type Claim struct {
	Purchase int    `yaml:"purchase"`
	Amount   string `yaml:"amount"`
	Votes    []Vote `yaml:"votes"`
}

// Scenario is a full scripted run.
type Scenario struct {
	Name         string `yaml:"name"`
	LpBps        uint32 `yaml:"lp_bps"`
	ReserveBps   uint32 `yaml:"reserve_bps"`
	NativeBudget string `yaml:"native_budget"`

	Deposits  []Deposit  `yaml:"deposits"`
	Purchases []Purchase `yaml:"purchases"`
	Claims    []Claim    `yaml:"claims"`
}

// Default is a small but complete run: one LP, one policy, one approved claim.
func Default() Scenario {
	return Scenario{
		Name:         "baseline",
		LpBps:        7_000,
		ReserveBps:   3_000,
		NativeBudget: "1000",
		Deposits: []Deposit{
			{Account: "lp-1", Amount: "10000"},
		},
		Purchases: []Purchase{{
			Buyer:     "buyer-1",
			Premium:   "1000",
			PoolID:    1,
			Coverage:  "1000",
			StartUnix: 1_750_000_000,
			EndUnix:   1_790_000_000,
			PolicyRef: "baseline-cover",
		}},
		Claims: []Claim{{
			Purchase: 0,
			Amount:   "250",
			Votes:    []Vote{{Voter: "lp-1", Support: true}},
		}},
	}
}

// Load reads a scenario from a YAML file.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate rejects scenarios the runner cannot execute.
func (s Scenario) Validate() error {
	if s.LpBps+s.ReserveBps != 10_000 {
		return fmt.Errorf("lp_bps and reserve_bps must sum to 10000, got %d", s.LpBps+s.ReserveBps)
	}
	if _, err := parseInt(s.NativeBudget, "native_budget"); err != nil {
		return err
	}
	for i, d := range s.Deposits {
		if d.Account == "" {
			return fmt.Errorf("deposits[%d]: account is required", i)
		}
		if _, err := parseInt(d.Amount, fmt.Sprintf("deposits[%d].amount", i)); err != nil {
			return err
		}
	}
	for i, p := range s.Purchases {
		if p.Buyer == "" || p.PolicyRef == "" {
			return fmt.Errorf("purchases[%d]: buyer and policy_ref are required", i)
		}
		if _, err := parseInt(p.Premium, fmt.Sprintf("purchases[%d].premium", i)); err != nil {
			return err
		}
		if _, err := parseInt(p.Coverage, fmt.Sprintf("purchases[%d].coverage", i)); err != nil {
			return err
		}
		if p.EndUnix <= p.StartUnix {
			return fmt.Errorf("purchases[%d]: end_unix must follow start_unix", i)
		}
	}
	for i, c := range s.Claims {
		if c.Purchase < 0 || c.Purchase >= len(s.Purchases) {
			return fmt.Errorf("claims[%d]: purchase index %d out of range", i, c.Purchase)
		}
		if _, err := parseInt(c.Amount, fmt.Sprintf("claims[%d].amount", i)); err != nil {
			return err
		}
	}
	return nil
}

func parseInt(raw, field string) (sdkmath.Int, error) {
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok || !value.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%s: %q is not a positive integer", field, raw)
	}
	return value, nil
}
