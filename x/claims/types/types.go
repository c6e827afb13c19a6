package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	// QuorumDenominator is the basis-point scale of the quorum threshold.
	QuorumDenominator = 10_000
)

// Params are the governance knobs for claim voting.
type Params struct {
	VotingPeriodSeconds int64  `json:"voting_period_seconds"`
	QuorumBps           uint32 `json:"quorum_bps"`
}

// DefaultParams returns the voting configuration applied until the authority
// sets one.
func DefaultParams() Params {
	return Params{
		VotingPeriodSeconds: 3 * 24 * 60 * 60,
		QuorumBps:           2_000,
	}
}

// Validate rejects an unusable voting configuration.
func (p Params) Validate() error {
	if p.VotingPeriodSeconds <= 0 {
		return fmt.Errorf("voting period must be positive")
	}
	if p.QuorumBps > QuorumDenominator {
		return fmt.Errorf("quorum cannot exceed %d basis points", QuorumDenominator)
	}
	return nil
}

// Claim is one payout request under vote.
//
// Lifecycle: open (votes accumulate until VoteEndUnix) -> finalized, exactly
// once, as approved or rejected.
type Claim struct {
	ID            uint64      `json:"id"`
	PolicyID      string      `json:"policy_id"`
	Claimant      string      `json:"claimant"`
	Amount        sdkmath.Int `json:"amount"`
	VoteStartUnix int64       `json:"vote_start_unix"`
	VoteEndUnix   int64       `json:"vote_end_unix"`
	DestChain     uint32      `json:"dest_chain"`
	DestVault     string      `json:"dest_vault"` // hex
	Finalized     bool        `json:"finalized"`
	Approved      bool        `json:"approved"`
	YesWeight     sdkmath.Int `json:"yes_weight"`
	NoWeight      sdkmath.Int `json:"no_weight"`
}
