package types

import (
	sdkmath "cosmossdk.io/math"
)

const (
	// DefaultCooldownSeconds is the withdrawal cooldown applied until the
	// authority configures one.
	DefaultCooldownSeconds = uint64(7 * 24 * 60 * 60)
)

// Stake is one LP's position. LockedUntilUnix is reset on every deposit.
type Stake struct {
	Owner           string      `json:"owner"`
	Shares          sdkmath.Int `json:"shares"`
	LockedUntilUnix int64       `json:"locked_until_unix"`
}

// WithdrawRequest is the single live withdrawal request for an LP. A new
// request overwrites the prior one entirely.
type WithdrawRequest struct {
	Owner        string      `json:"owner"`
	Shares       sdkmath.Int `json:"shares"`
	UnlockAtUnix int64       `json:"unlock_at_unix"`
}

// MirrorRoute is the configured destination of voting-power syncs.
type MirrorRoute struct {
	ChainID  uint32 `json:"chain_id"`
	Receiver string `json:"receiver"` // hex
}
