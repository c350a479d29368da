package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrAlreadyPurchased   = errors.New("plan already purchased")

	// Coupon validation errors
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponNotApplicable = errors.New("coupon is not valid for this plan")

	// Payment reconciliation errors
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrUnknownOrder       = errors.New("no purchase for order")
	ErrConflict           = errors.New("purchase state conflict")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Storage errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid query execution context")
)
