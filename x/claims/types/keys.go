package types

const (
	// ModuleName is the claim governance namespace.
	ModuleName = "claims"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// ClaimKeyPrefix stores claims by sequence id.
	ClaimKeyPrefix = []byte{0x01}

	// ClaimCountKey stores the claim sequence.
	ClaimCountKey = []byte{0x02}

	// VotedKeyPrefix records which voters already voted on which claim.
	VotedKeyPrefix = []byte{0x03}

	// ParamsKey stores governance parameters.
	ParamsKey = []byte{0x04}

	// AllowedChainKeyPrefix stores permitted payout destination chains.
	AllowedChainKeyPrefix = []byte{0x05}

	// AllowedReceiverKeyPrefix stores permitted payout receivers.
	AllowedReceiverKeyPrefix = []byte{0x06}

	// GasConfigKeyPrefix stores per-destination gas budgets.
	GasConfigKeyPrefix = []byte{0x07}
)

// Event types.
const (
	EventTypeClaimOpened    = "claim_opened"
	EventTypeClaimVoted     = "claim_voted"
	EventTypeClaimFinalized = "claim_finalized"
	EventTypePayoutSent     = "claim_payout_sent"
)
