package types

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// PowerUpdate adjusts one account's mirrored voting power. When IsDelta is
// set the power is added on top of the existing value; the wire format has no
// representation for a negative delta, so a delta update with a non-positive
// power is skipped by receivers. An absolute update replaces the stored value.
type PowerUpdate struct {
	Account     string      `json:"account"`
	Power       sdkmath.Int `json:"power"`
	IsDelta     bool        `json:"is_delta"`
	LockedUntil int64       `json:"locked_until,omitempty"`
}

// PowerSyncPayload carries a batch of voting-power updates from the share
// vault to the mirror.
type PowerSyncPayload struct {
	Updates []PowerUpdate `json:"updates"`
}

// PolicyTermsPayload carries coverage terms from the premium splitter to the
// policy registry.
type PolicyTermsPayload struct {
	PoolID    uint64      `json:"pool_id"`
	Buyer     string      `json:"buyer"`
	Coverage  sdkmath.Int `json:"coverage"`
	StartUnix int64       `json:"start_unix"`
	EndUnix   int64       `json:"end_unix"`
	PolicyRef string      `json:"policy_ref"`
}

// PayoutPayload instructs the payout reserve to release funds for an
// approved claim. Tag must equal PayoutMessageTag.
type PayoutPayload struct {
	Tag      string      `json:"tag"`
	ClaimID  uint64      `json:"claim_id"`
	Claimant string      `json:"claimant"`
	Amount   sdkmath.Int `json:"amount"`
}

// EncodePayload renders any payload struct to its wire bytes.
func EncodePayload(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

// DecodePowerSync parses a voting-power batch off the wire.
func DecodePowerSync(raw []byte) (PowerSyncPayload, error) {
	var payload PowerSyncPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PowerSyncPayload{}, fmt.Errorf("decode power sync: %w", err)
	}
	return payload, nil
}

// DecodePolicyTerms parses coverage terms off the wire.
func DecodePolicyTerms(raw []byte) (PolicyTermsPayload, error) {
	var payload PolicyTermsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PolicyTermsPayload{}, fmt.Errorf("decode policy terms: %w", err)
	}
	return payload, nil
}

// DecodePayout parses a payout instruction off the wire.
func DecodePayout(raw []byte) (PayoutPayload, error) {
	var payload PayoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PayoutPayload{}, fmt.Errorf("decode payout: %w", err)
	}
	return payload, nil
}

// Validate checks the terms are self-consistent before they are sent.
func (p PolicyTermsPayload) Validate() error {
	if p.Buyer == "" {
		return fmt.Errorf("policy buyer cannot be empty")
	}
	if p.Coverage.IsNil() || !p.Coverage.IsPositive() {
		return fmt.Errorf("coverage amount must be positive")
	}
	if p.EndUnix <= p.StartUnix {
		return fmt.Errorf("coverage window must end after it starts")
	}
	return nil
}
