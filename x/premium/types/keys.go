package types

const (
	// ModuleName is the premium splitter namespace.
	ModuleName = "premium"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// ModuleAccount is the splitter's account on the premium asset ledger.
	// Premiums only pass through it within a single operation.
	ModuleAccount = ModuleName
)

var (
	// SplitConfigKey stores the basis-point premium split.
	SplitConfigKey = []byte{0x01}

	// AllowedChainKeyPrefix stores permitted destination chains.
	AllowedChainKeyPrefix = []byte{0x02}

	// AllowedReceiverKeyPrefix stores permitted destination receivers.
	AllowedReceiverKeyPrefix = []byte{0x03}

	// GasConfigKeyPrefix stores per-destination gas budgets.
	GasConfigKeyPrefix = []byte{0x04}
)
