package serializer

import (
	"encoding/json"

	"github.com/xconnio/xconn-go/protocol"
)

// JSON is the text wamp.2.json codec, backed by the standard library
// encoder/decoder. No third-party JSON library in the example corpus
// (sonic, go-json) is anything but a drop-in accelerant pulled in
// transitively by an HTTP framework this module does not use, so there
// is no grounded reason to reach past encoding/json here.
type JSON struct{}

func (JSON) Subprotocol() string { return "wamp.2.json" }
func (JSON) ID() int             { return IDJSON }
func (JSON) IsBinary() bool      { return false }

func (JSON) Encode(msg protocol.Message) ([]byte, error) {
	wire, err := protocol.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func (JSON) Decode(data []byte) (protocol.Message, error) {
	var wire protocol.List
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return protocol.Unmarshal(wire)
}
