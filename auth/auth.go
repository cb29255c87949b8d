// Package auth implements the WAMP client authentication method state
// machines: anonymous, ticket, WAMP-CRA and cryptosign.
package auth

import "github.com/xconnio/xconn-go/protocol"

// ClientAuthenticator answers a router's CHALLENGE during the HELLO
// handshake. AuthMethod is advertised in HELLO.Details.authmethods;
// Authenticate computes the AUTHENTICATE reply for a given CHALLENGE.
type ClientAuthenticator interface {
	AuthMethod() string
	AuthID() string
	Authenticate(challenge protocol.Challenge) (protocol.Authenticate, error)
}
