package auth

import "github.com/xconnio/xconn-go/protocol"

// Ticket answers any CHALLENGE with a fixed shared ticket string.
type Ticket struct {
	authID string
	ticket string
}

func NewTicket(authID, ticket string) Ticket {
	return Ticket{authID: authID, ticket: ticket}
}

func (Ticket) AuthMethod() string { return "ticket" }
func (t Ticket) AuthID() string   { return t.authID }

func (t Ticket) Authenticate(protocol.Challenge) (protocol.Authenticate, error) {
	return protocol.Authenticate{Signature: t.ticket, Extra: protocol.Dict{}}, nil
}
