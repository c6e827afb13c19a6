package types

const (
	// ModuleName is the share vault namespace.
	ModuleName = "vault"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// ModuleAccount is the vault's account on the premium asset ledger.
	ModuleAccount = ModuleName
)

var (
	// StakeKeyPrefix stores one stake record per LP.
	StakeKeyPrefix = []byte{0x01}

	// WithdrawRequestKeyPrefix stores the single pending request per LP.
	WithdrawRequestKeyPrefix = []byte{0x02}

	// TotalSharesKey stores the outstanding share supply.
	TotalSharesKey = []byte{0x03}

	// NativeBalanceKey stores the native fee budget for power syncs.
	NativeBalanceKey = []byte{0x04}

	// GasConfigKeyPrefix stores per-destination gas budgets.
	GasConfigKeyPrefix = []byte{0x05}

	// MirrorRouteKey stores the voting-power mirror destination.
	MirrorRouteKey = []byte{0x06}

	// CooldownKey stores the withdrawal cooldown in seconds.
	CooldownKey = []byte{0x07}
)
