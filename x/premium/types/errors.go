package types

import "errors"

var (
	// ErrInvalidAmount rejects zero or negative premiums.
	ErrInvalidAmount = errors.New("premium amount must be positive")

	// ErrSplitNotConfigured signals no premium split has been set.
	ErrSplitNotConfigured = errors.New("premium split is not configured")

	// ErrDestinationNotAllowed rejects a destination chain off the allowlist.
	ErrDestinationNotAllowed = errors.New("destination chain is not allowlisted")

	// ErrReceiverNotAllowed rejects a destination receiver off the allowlist.
	ErrReceiverNotAllowed = errors.New("destination receiver is not allowlisted")

	// ErrNoGasConfig signals a missing gas budget for the destination chain.
	ErrNoGasConfig = errors.New("no gas config for destination chain")

	// ErrInsufficientNativeFee signals the attached native payment is below
	// the quoted delivery fee.
	ErrInsufficientNativeFee = errors.New("attached native payment below delivery fee")

	// ErrUnauthorized rejects configuration calls from a non-authority.
	ErrUnauthorized = errors.New("caller is not the splitter authority")
)
