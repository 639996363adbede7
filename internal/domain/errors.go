// Package domain provides types shared across ledger modules.
package domain

import "errors"

// Business-rule errors surfaced to callers. Each kind is recoverable and must
// stay distinguishable (errors.Is) from store-level I/O failures, which are
// wrapped and propagated separately.
var (
	// ErrInsufficientAsset - sell quantity exceeds the held position beyond tolerance
	ErrInsufficientAsset = errors.New("insufficient asset quantity")

	// ErrInsufficientCash - withdrawal or buy settlement exceeds the cash balance beyond tolerance
	ErrInsufficientCash = errors.New("insufficient cash balance")

	// ErrNotFound - mutation target absent or not owned by the account
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput - non-positive quantity, price or amount, or a malformed field
	ErrInvalidInput = errors.New("invalid input")
)

// Epsilon is the absolute tolerance for sufficiency comparisons. Repeated
// fractional trades accumulate float rounding; amounts within Epsilon of the
// boundary are treated as sufficient.
const Epsilon = 1e-8
