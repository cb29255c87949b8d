package serializer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xconnio/xconn-go/protocol"
	"github.com/xconnio/xconn-go/serializer"
)

func TestSerializersRoundTrip(t *testing.T) {
	msg := protocol.Call{
		RequestID: 7,
		Options:   protocol.Dict{},
		Procedure: "io.xconn.echo",
		Args:      protocol.List{int64(1), "two"},
		Kwargs:    protocol.Dict{"name": "John"},
	}

	for _, s := range []serializer.Serializer{serializer.JSON{}, serializer.CBOR{}, serializer.MsgPack{}} {
		data, err := s.Encode(msg)
		require.NoError(t, err)

		decoded, err := s.Decode(data)
		require.NoError(t, err)

		call, ok := decoded.(protocol.Call)
		require.True(t, ok)
		require.Equal(t, msg.RequestID, call.RequestID)
		require.Equal(t, msg.Procedure, call.Procedure)
		require.Len(t, call.Args, 2)
		require.Equal(t, "John", call.Kwargs["name"])
	}
}

func TestFromID(t *testing.T) {
	s, ok := serializer.FromID(serializer.IDCBOR)
	require.True(t, ok)
	require.Equal(t, "wamp.2.cbor", s.Subprotocol())

	_, ok = serializer.FromID(99)
	require.False(t, ok)
}

func TestSubprotocolsAndBinaryFlags(t *testing.T) {
	require.Equal(t, "wamp.2.json", serializer.JSON{}.Subprotocol())
	require.False(t, serializer.JSON{}.IsBinary())

	require.Equal(t, "wamp.2.cbor", serializer.CBOR{}.Subprotocol())
	require.True(t, serializer.CBOR{}.IsBinary())

	require.Equal(t, "wamp.2.msgpack", serializer.MsgPack{}.Subprotocol())
	require.True(t, serializer.MsgPack{}.IsBinary())
}
