package types

import "errors"

var (
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSourceNotAllowed rejects messages from an unlisted source chain.
	ErrSourceNotAllowed = errors.New("source chain is not allowlisted")

	// ErrSenderNotAllowed rejects messages from an unlisted sender.
	ErrSenderNotAllowed = errors.New("sender is not allowlisted")

	// ErrBadTag rejects payout payloads without the protocol tag.
	ErrBadTag = errors.New("payout payload carries wrong protocol tag")

	// ErrInsufficientReserve signals a payout exceeding the earmarked reserve.
	ErrInsufficientReserve = errors.New("payout exceeds earmarked reserve")

	// ErrUnauthorized rejects configuration calls from a non-authority.
	ErrUnauthorized = errors.New("caller is not the reserve authority")
)
