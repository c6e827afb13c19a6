package types

import "errors"

var (
	// ErrNoFeeConfig signals the destination chain has no fee schedule.
	ErrNoFeeConfig = errors.New("no fee config for destination chain")

	// ErrInsufficientFee signals the attached fee is below the quote.
	ErrInsufficientFee = errors.New("attached fee below quoted delivery fee")

	// ErrNoRoute signals no handler is registered for the destination.
	ErrNoRoute = errors.New("no handler registered for destination")

	// ErrUnknownMessage signals a redelivery request for an id the channel
	// has never carried.
	ErrUnknownMessage = errors.New("unknown message id")
)
