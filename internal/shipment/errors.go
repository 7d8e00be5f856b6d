package shipment

import "errors"

var (
	// ErrShipmentNotFound is returned for both missing rows and rows owned
	// by another customer. A scoped lookup miss must not reveal which.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrCarrierConfigMissing means sender code or departure depot is not
	// configured. Raised before any external call.
	ErrCarrierConfigMissing = errors.New("carrier sender configuration is missing")
)

// ValidationError is a user-input failure; its message is specific and safe
// to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
