package types

import "errors"

var (
	// ErrNotPolicyHolder rejects claim opening by anyone but the policy
	// buyer or the authority.
	ErrNotPolicyHolder = errors.New("caller is not the policy holder")

	// ErrPolicyInactive rejects claims against unknown or inactive policies.
	ErrPolicyInactive = errors.New("policy is not active")

	// ErrOutsideCoverage rejects claims opened outside the coverage window.
	ErrOutsideCoverage = errors.New("current time is outside the coverage window")

	// ErrInvalidAmount rejects zero amounts or amounts above the coverage.
	ErrInvalidAmount = errors.New("claim amount must be positive and within coverage")

	// ErrUnknownClaim signals a vote or finalize against a missing claim.
	ErrUnknownClaim = errors.New("unknown claim")

	// ErrVoteWindowClosed rejects votes after the voting deadline.
	ErrVoteWindowClosed = errors.New("vote window has closed")

	// ErrVoteWindowOpen rejects finalization before the voting deadline.
	ErrVoteWindowOpen = errors.New("vote window is still open")

	// ErrAlreadyVoted rejects a second vote from the same voter.
	ErrAlreadyVoted = errors.New("voter already voted on this claim")

	// ErrAlreadyFinalized rejects a second finalization.
	ErrAlreadyFinalized = errors.New("claim already finalized")

	// ErrDestinationNotAllowed rejects a payout chain off the allowlist.
	ErrDestinationNotAllowed = errors.New("destination chain is not allowlisted")

	// ErrReceiverNotAllowed rejects a payout receiver off the allowlist.
	ErrReceiverNotAllowed = errors.New("destination receiver is not allowlisted")

	// ErrNoGasConfig signals a missing gas budget for the payout chain.
	ErrNoGasConfig = errors.New("no gas config for destination chain")

	// ErrInsufficientNativeFee signals the attached native payment is below
	// the quoted delivery fee.
	ErrInsufficientNativeFee = errors.New("attached native payment below delivery fee")

	// ErrUnauthorized rejects configuration calls from a non-authority.
	ErrUnauthorized = errors.New("caller is not the governance authority")
)
