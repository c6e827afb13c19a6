package types

const (
	// ModuleName is the policy registry namespace.
	ModuleName = "policy"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// PolicyKeyPrefix stores policy records by derived id.
	PolicyKeyPrefix = []byte{0x01}

	// ProcessedKeyPrefix stores applied inbound message ids.
	ProcessedKeyPrefix = []byte{0x02}

	// AllowedSourceKeyPrefix stores permitted source chains.
	AllowedSourceKeyPrefix = []byte{0x03}

	// AllowedSenderKeyPrefix stores permitted inbound senders.
	AllowedSenderKeyPrefix = []byte{0x04}

	// PolicyCountKey stores the number of registered policies.
	PolicyCountKey = []byte{0x05}
)
