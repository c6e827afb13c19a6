package types

const (
	// ModuleName is the bridge channel namespace.
	ModuleName = "bridge"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

const (
	// PayoutMessageTag marks a payout instruction payload. A receiver must
	// reject any payout message carrying a different tag.
	PayoutMessageTag = "guardian/payout/v1"
)
