package payment

import "errors"

var (
	// ErrPaymentNotFound matches standard 404 behavior.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidTierPrice rejects checkout on a tier whose price is not
	// positive; such a row is a price-table mistake, not a free shipment.
	ErrInvalidTierPrice = errors.New("pricing tier has no positive price")

	// ErrZeroAmount rejects amounts that round to zero minor units.
	ErrZeroAmount = errors.New("payment amount rounds to zero")

	// ErrMissingSession means the payment has no gateway session attached
	// yet; finalization cannot proceed and the caller may retry once the
	// session exists.
	ErrMissingSession = errors.New("payment has no gateway session")

	// ErrGatewayUnavailable is the retryable gateway failure: the provider
	// could not answer. The original cause stays in the logs.
	ErrGatewayUnavailable = errors.New("payment gateway is currently unavailable")

	// ErrSessionInvalid is the non-retryable gateway failure: the provider
	// answered that the session does not exist or cannot be read.
	ErrSessionInvalid = errors.New("payment gateway rejected the session")
)
