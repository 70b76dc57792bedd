package protocol

import "fmt"

// Error is the numeric code plus short description carried on an ERR line.
// The code space is opaque to the engine; it forwards whatever the handler
// or peer supplied.
type Error struct {
	Code        int
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%d", e.Code)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Description)
}

// NewError builds a wire error with an explicit code.
func NewError(code int, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Codes holds the reserved numeric codes the engine itself emits. The values
// are conventions of the agent implementation being targeted, not invariants
// of the engine, so they are configuration rather than hard-coded literals.
type Codes struct {
	GeneralError     int
	InvalidResponse  int
	InvalidParameter int
	InvalidRequest   int
	UnknownOption    int
	UnknownCommand   int
	LineTooLong      int
	Cancelled        int
}

// DefaultCodes returns the gpg-error style values used by GnuPG agents.
func DefaultCodes() Codes {
	return Codes{
		GeneralError:     1,
		InvalidResponse:  76,
		InvalidParameter: 90,
		InvalidRequest:   170,
		UnknownOption:    174,
		UnknownCommand:   175,
		LineTooLong:      263,
		Cancelled:        277,
	}
}
