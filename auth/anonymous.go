package auth

import (
	"fmt"

	"github.com/xconnio/xconn-go/protocol"
)

// Anonymous never receives a CHALLENGE; the router admits the session
// straight from HELLO to WELCOME.
type Anonymous struct {
	authID string
}

func NewAnonymous(authID string) Anonymous {
	return Anonymous{authID: authID}
}

func (Anonymous) AuthMethod() string { return "anonymous" }
func (a Anonymous) AuthID() string   { return a.authID }

func (Anonymous) Authenticate(protocol.Challenge) (protocol.Authenticate, error) {
	return protocol.Authenticate{}, fmt.Errorf("auth: anonymous authenticator received unexpected CHALLENGE")
}
