package types

import "errors"

var (
	// ErrInvalidAmount rejects zero or negative deposit amounts.
	ErrInvalidAmount = errors.New("deposit amount must be positive")

	// ErrInvalidShares rejects zero or oversized share counts.
	ErrInvalidShares = errors.New("shares must be positive and within the stake")

	// ErrNoPendingWithdrawal signals finalize without a live request.
	ErrNoPendingWithdrawal = errors.New("no pending withdrawal request")

	// ErrCooldownActive signals finalize before the cooldown elapsed.
	ErrCooldownActive = errors.New("withdrawal cooldown has not elapsed")

	// ErrInsufficientNativeFee signals the vault's fee budget cannot cover a
	// configured power sync.
	ErrInsufficientNativeFee = errors.New("insufficient native balance for power sync fee")

	// ErrUnauthorized rejects configuration calls from a non-authority.
	ErrUnauthorized = errors.New("caller is not the vault authority")
)
