package sector

import (
	"errors"
	"fmt"
)

// AuthError is returned when session establishment fails. Callers get one
// error type to handle for login, whatever the underlying cause was.
type AuthError struct {
	Reason string
	Err    error
}

const (
	ReasonInvalidCredentials = "invalid credentials"
	ReasonTimeout            = "timeout during login"
	ReasonTransport          = "client error during login"
)

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// errInvalidSession is returned without touching the network when an
// authenticated call is made on a session that was never opened or has been
// closed.
var errInvalidSession = errors.New("invalid session: not logged in")
