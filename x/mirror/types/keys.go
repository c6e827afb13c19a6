package types

const (
	// ModuleName is the voting-power mirror namespace.
	ModuleName = "mirror"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// PowerKeyPrefix stores per-account voting power.
	PowerKeyPrefix = []byte{0x01}

	// TotalPowerKey stores the cached aggregate power.
	TotalPowerKey = []byte{0x02}

	// ProcessedKeyPrefix stores applied inbound message ids.
	ProcessedKeyPrefix = []byte{0x03}

	// AllowedSourceKeyPrefix stores permitted source chains.
	AllowedSourceKeyPrefix = []byte{0x04}

	// AllowedSenderKeyPrefix stores permitted inbound senders.
	AllowedSenderKeyPrefix = []byte{0x05}
)
