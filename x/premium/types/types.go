package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	// BpsDenominator is the basis-point scale of the premium split.
	BpsDenominator = 10_000
)

// SplitConfig divides every premium between LP yield and the claim reserve.
type SplitConfig struct {
	LpBps      uint32 `json:"lp_bps"`
	ReserveBps uint32 `json:"reserve_bps"`
}

// Validate requires the split to cover the premium exactly. Each leg is
// bounded first so the sum cannot wrap around uint32.
func (c SplitConfig) Validate() error {
	if c.LpBps > BpsDenominator || c.ReserveBps > BpsDenominator {
		return fmt.Errorf("split legs cannot exceed %d basis points, got %d/%d", BpsDenominator, c.LpBps, c.ReserveBps)
	}
	if c.LpBps+c.ReserveBps != BpsDenominator {
		return fmt.Errorf("split must sum to %d basis points, got %d", BpsDenominator, c.LpBps+c.ReserveBps)
	}
	return nil
}

// CoverageTerms are the buyer-supplied policy terms forwarded to the policy
// registry. The buyer identity is stamped by the splitter, not supplied.
type CoverageTerms struct {
	PoolID    uint64      `json:"pool_id"`
	Coverage  sdkmath.Int `json:"coverage"`
	StartUnix int64       `json:"start_unix"`
	EndUnix   int64       `json:"end_unix"`
	PolicyRef string      `json:"policy_ref"`
}
