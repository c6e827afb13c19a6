package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Policy is one registered coverage record. The id is derived from the full
// terms tuple, so two messages carrying identical terms land on the same
// record.
type Policy struct {
	ID        string      `json:"id"`
	PoolID    uint64      `json:"pool_id"`
	Buyer     string      `json:"buyer"`
	Coverage  sdkmath.Int `json:"coverage"`
	StartUnix int64       `json:"start_unix"`
	EndUnix   int64       `json:"end_unix"`
	PolicyRef string      `json:"policy_ref"`
	TokenID   string      `json:"token_id"`
	Active    bool        `json:"active"`
}

// EmptyPolicy is what lookups return for unknown ids.
func EmptyPolicy(id string) Policy {
	return Policy{ID: id, Coverage: sdkmath.ZeroInt()}
}

// DerivePolicyID hashes the full terms tuple into the policy identity.
func DerivePolicyID(poolID uint64, buyer string, coverage sdkmath.Int, startUnix, endUnix int64, policyRef string) string {
	preimage := fmt.Sprintf("%d|%s|%s|%d|%d|%s", poolID, buyer, coverage.String(), startUnix, endUnix, policyRef)
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])
}
