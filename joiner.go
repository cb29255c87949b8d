package xconn

import (
	"fmt"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/protocol"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
)

// join drives the one-shot HELLO/CHALLENGE/AUTHENTICATE/WELCOME state
// machine to a ready Session, per spec.md 4.3.
func join(peer transport.Peer, ser serializer.Serializer, realm string, authenticator auth.ClientAuthenticator) (*Session, error) {
	hello := protocol.Hello{
		Realm: realm,
		Details: Dict{
			"roles": Dict{
				"caller":     Dict{},
				"callee":     Dict{},
				"publisher":  Dict{},
				"subscriber": Dict{},
			},
			"authid":      authenticator.AuthID(),
			"authmethods": List{authenticator.AuthMethod()},
		},
	}

	if err := writeMessage(peer, ser, hello); err != nil {
		return nil, err
	}

	for {
		frame, err := peer.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}

		msg, err := ser.Decode(frame)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}

		switch m := msg.(type) {
		case protocol.Challenge:
			reply, err := authenticator.Authenticate(m)
			if err != nil {
				return nil, fmt.Errorf("%w: authenticator rejected challenge: %v", ErrJoin, err)
			}
			if err := writeMessage(peer, ser, reply); err != nil {
				return nil, err
			}

		case protocol.Welcome:
			details := SessionDetails{
				ID:       m.SessionID,
				Realm:    realm,
				AuthID:   stringDetail(m.Details, "authid"),
				AuthRole: stringDetail(m.Details, "authrole"),
			}
			return newSession(peer, ser, details), nil

		case protocol.Abort:
			return nil, fmt.Errorf("%w: router aborted handshake: %s", ErrJoin, m.Reason)

		default:
			return nil, fmt.Errorf("%w: unexpected message during handshake: type %d", ErrProtocol, msg.Type())
		}
	}
}

func writeMessage(peer transport.Peer, ser serializer.Serializer, msg protocol.Message) error {
	data, err := ser.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: encode failed: %v", ErrProtocol, err)
	}
	if err := peer.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func stringDetail(details Dict, key string) string {
	v, _ := details[key].(string)
	return v
}
