// Package xconn is a WAMP v2 client library: session state machine,
// read/dispatch loop, request/reply correlation, and connect helpers
// for the anonymous, ticket, WAMP-CRA and cryptosign authentication
// methods.
package xconn

import (
	"fmt"
	"net/url"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
)

// Client configures the serializer and authenticator a Connect call
// uses. The zero value connects with CBOR and anonymous auth, matching
// original_source's Default impl.
type Client struct {
	Serializer    serializer.Serializer
	Authenticator auth.ClientAuthenticator
}

// NewClient builds a Client with an explicit serializer and
// authenticator.
func NewClient(ser serializer.Serializer, authenticator auth.ClientAuthenticator) Client {
	return Client{Serializer: ser, Authenticator: authenticator}
}

// Connect dials uri's transport (selected by URI scheme), performs the
// handshake for realm, and returns a ready Session.
func (c Client) Connect(uri, realm string) (*Session, error) {
	ser := c.Serializer
	if ser == nil {
		ser = serializer.CBOR{}
	}
	authenticator := c.Authenticator
	if authenticator == nil {
		authenticator = auth.NewAnonymous("anonymous")
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid uri: %v", ErrInvalidRequest, err)
	}

	var peer transport.Peer
	switch parsed.Scheme {
	case "ws", "wss":
		peer, err = transport.DialWebSocket(uri, ser.Subprotocol(), ser.IsBinary())
	case "rs", "rss", "tcp", "tcps":
		peer, err = transport.DialRawSocket(uri, ser.ID())
	default:
		return nil, fmt.Errorf("%w: unsupported uri scheme %q", ErrInvalidRequest, parsed.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	session, err := join(peer, ser, realm, authenticator)
	if err != nil {
		_ = peer.Close()
		return nil, err
	}
	return session, nil
}

// ConnectAnonymous joins realm at uri with no authentication challenge.
func ConnectAnonymous(uri, realm string) (*Session, error) {
	return NewClient(serializer.CBOR{}, auth.NewAnonymous("anonymous")).Connect(uri, realm)
}

// ConnectTicket joins realm at uri, answering the CHALLENGE with a
// fixed ticket.
func ConnectTicket(uri, realm, authID, ticket string) (*Session, error) {
	return NewClient(serializer.CBOR{}, auth.NewTicket(authID, ticket)).Connect(uri, realm)
}

// ConnectWAMPCRA joins realm at uri, answering the CHALLENGE with an
// HMAC-SHA256 WAMP-CRA signature over the shared secret.
func ConnectWAMPCRA(uri, realm, authID, secret string) (*Session, error) {
	return NewClient(serializer.CBOR{}, auth.NewWAMPCRA(authID, secret)).Connect(uri, realm)
}

// ConnectCryptoSign joins realm at uri, answering the CHALLENGE with an
// Ed25519 cryptosign signature. privateKeyHex is a 64-character hex
// Ed25519 seed.
func ConnectCryptoSign(uri, realm, authID, privateKeyHex string) (*Session, error) {
	authenticator, err := auth.NewCryptoSign(authID, privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return NewClient(serializer.CBOR{}, authenticator).Connect(uri, realm)
}
