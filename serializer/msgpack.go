package serializer

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/xconnio/xconn-go/protocol"
)

// MsgPack is the binary wamp.2.msgpack codec, backed by
// vmihailenco/msgpack/v5, present throughout the wider example pack.
type MsgPack struct{}

func (MsgPack) Subprotocol() string { return "wamp.2.msgpack" }
func (MsgPack) ID() int             { return IDMsgPack }
func (MsgPack) IsBinary() bool      { return true }

func (MsgPack) Encode(msg protocol.Message) ([]byte, error) {
	wire, err := protocol.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(wire)
}

func (MsgPack) Decode(data []byte) (protocol.Message, error) {
	var wire protocol.List
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return protocol.Unmarshal(wire)
}
