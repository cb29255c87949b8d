package serializer

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/xconnio/xconn-go/protocol"
)

// CBOR is the binary wamp.2.cbor codec, backed by fxamacker/cbor/v2 — a
// direct dependency of the teacher repository.
type CBOR struct{}

func (CBOR) Subprotocol() string { return "wamp.2.cbor" }
func (CBOR) ID() int             { return IDCBOR }
func (CBOR) IsBinary() bool      { return true }

func (CBOR) Encode(msg protocol.Message) ([]byte, error) {
	wire, err := protocol.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(wire)
}

func (CBOR) Decode(data []byte) (protocol.Message, error) {
	var wire protocol.List
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return protocol.Unmarshal(wire)
}
