// Package serializer provides the wire codecs a Session encodes and
// decodes WAMP messages with: JSON, CBOR and MessagePack.
package serializer

import "github.com/xconnio/xconn-go/protocol"

// ID values match the RawSocket handshake's serializer nibble.
const (
	IDJSON    = 1
	IDMsgPack = 2
	IDCBOR    = 3
)

// Serializer names a wire codec: its subprotocol string for the WebSocket
// handshake, its numeric id for the RawSocket handshake, whether it is a
// binary or text codec, and the encode/decode of typed protocol messages.
type Serializer interface {
	Subprotocol() string
	ID() int
	IsBinary() bool
	Encode(msg protocol.Message) ([]byte, error)
	Decode(data []byte) (protocol.Message, error)
}

// FromID returns the Serializer matching a RawSocket handshake id.
func FromID(id int) (Serializer, bool) {
	switch id {
	case IDJSON:
		return JSON{}, true
	case IDCBOR:
		return CBOR{}, true
	case IDMsgPack:
		return MsgPack{}, true
	default:
		return nil, false
	}
}
