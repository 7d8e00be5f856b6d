package reqinfo

import "github.com/google/uuid"

// RequestInfo carries the identity and origin of the caller through every
// operation. It is built once at the HTTP boundary and passed explicitly;
// nothing below the handlers reads request state from anywhere else.
type RequestInfo struct {
	CustomerID uuid.UUID
	IP         string
	UserAgent  string
}
