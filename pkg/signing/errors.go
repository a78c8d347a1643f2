package signing

import "errors"

// ErrSigning matches every *Error via errors.Is.
var ErrSigning = errors.New("signing failed")

type Reason string

const (
	ReasonNilURI          Reason = "nil_uri"
	ReasonInvalidKey      Reason = "invalid_key"
	ReasonInvalidClientID Reason = "invalid_client_id"
	ReasonUndecodableKey  Reason = "undecodable_key"
)

// Error reports malformed signing credentials or missing signing input.
type Error struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrSigning }

var (
	ErrNilURI          = &Error{Reason: ReasonNilURI, Message: "A uri is required for signing."}
	ErrInvalidKey      = &Error{Reason: ReasonInvalidKey, Message: "Invalid signing key."}
	ErrInvalidClientID = &Error{Reason: ReasonInvalidClientID, Message: "A clientId must start with '" + ClientIDPrefix + "'."}
)
