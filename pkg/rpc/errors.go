package rpc

import "fmt"

// AuthError is returned when the daemon rejects the call with HTTP 401.
// It is always surfaced verbatim; retrying with the same credentials is
// pointless.
type AuthError struct {
	Host string
	Port int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s:%d (check your RPC credentials)", e.Host, e.Port)
}

// HTTPError is returned for any HTTP status other than 200, 500 and 401.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// RPCError carries an RPC-level error reported by the daemon in the
// envelope's error field.
type RPCError struct {
	Message string
}

func (e *RPCError) Error() string {
	return e.Message
}
