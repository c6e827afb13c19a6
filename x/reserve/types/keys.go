package types

const (
	// ModuleName is the payout reserve namespace.
	ModuleName = "reserve"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// ModuleAccount is the reserve's account on the premium asset ledger.
	ModuleAccount = ModuleName
)

var (
	// ReserveCounterKey stores the earmarked reserve amount.
	ReserveCounterKey = []byte{0x01}

	// ProcessedKeyPrefix stores applied inbound message ids.
	ProcessedKeyPrefix = []byte{0x02}

	// AllowedSourceKeyPrefix stores permitted source chains.
	AllowedSourceKeyPrefix = []byte{0x03}

	// AllowedSenderKeyPrefix stores permitted inbound senders.
	AllowedSenderKeyPrefix = []byte{0x04}
)
