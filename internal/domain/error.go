package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAlreadyExists         = errors.New("entity already exists")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrFreePlanClaimed       = errors.New("free plan already claimed")
	ErrFreePlanMisconfigured = errors.New("free package missing from catalog")
	ErrUnknownFeature        = errors.New("unknown feature key")

	// Storage-level errors. Kept coarse so use cases can branch on them
	// without importing driver packages.
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
