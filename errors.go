package xconn

import "errors"

// Sentinel error kinds, matched with errors.Is at call sites after
// wrapping with fmt.Errorf("...: %w", ...).
var (
	// ErrTransport covers connection refused, unexpected EOF, TLS
	// failure, framing violations and invalid UTF-8 on a text codec.
	// It is fatal to the session.
	ErrTransport = errors.New("xconn: transport error")

	// ErrProtocol covers decode failure or an unexpected message type
	// for the current state. Fatal; closes the session.
	ErrProtocol = errors.New("xconn: protocol error")

	// ErrJoin covers an ABORT during the handshake or an authenticator
	// rejection. The session never reaches the Joined state.
	ErrJoin = errors.New("xconn: join error")

	// ErrInvalidRequest covers caller-side mistakes: unknown URI
	// scheme, malformed procedure name, and the like.
	ErrInvalidRequest = errors.New("xconn: invalid request")
)

// WampError is the application-level error carried inside a WAMP ERROR
// frame and surfaced to the originating caller as the error field of
// the matching response. It is never fatal to the session.
type WampError struct {
	URI    string
	Args   List
	Kwargs Dict
}

func (e *WampError) Error() string {
	return "xconn: wamp error: " + e.URI
}
