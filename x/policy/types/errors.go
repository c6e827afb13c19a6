package types

import "errors"

var (
	// ErrSourceNotAllowed rejects messages from an unlisted source chain.
	ErrSourceNotAllowed = errors.New("source chain is not allowlisted")

	// ErrSenderNotAllowed rejects messages from an unlisted sender.
	ErrSenderNotAllowed = errors.New("sender is not allowlisted")

	// ErrUnauthorized rejects configuration calls from a non-authority.
	ErrUnauthorized = errors.New("caller is not the registry authority")
)
