package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xconnio/xconn-go/protocol"
)

func roundTrip(t *testing.T, msg protocol.Message) protocol.Message {
	t.Helper()
	wire, err := protocol.Marshal(msg)
	require.NoError(t, err)
	got, err := protocol.Unmarshal(wire)
	require.NoError(t, err)
	return got
}

func TestRoundTripCall(t *testing.T) {
	msg := protocol.Call{
		RequestID: 1,
		Options:   protocol.Dict{},
		Procedure: "io.xconn.echo",
		Args:      protocol.List{int64(1)},
		Kwargs:    protocol.Dict{"name": "John"},
	}
	got := roundTrip(t, msg)
	require.Equal(t, msg, got)
}

func TestRoundTripCallNoArgs(t *testing.T) {
	msg := protocol.Call{RequestID: 2, Options: protocol.Dict{}, Procedure: "p"}
	got, ok := roundTrip(t, msg).(protocol.Call)
	require.True(t, ok)
	require.Equal(t, msg.RequestID, got.RequestID)
	require.Equal(t, msg.Procedure, got.Procedure)
	require.Empty(t, got.Args)
	require.Empty(t, got.Kwargs)
}

func TestRoundTripResult(t *testing.T) {
	msg := protocol.Result{RequestID: 9, Details: protocol.Dict{}, Args: protocol.List{"x", int64(2)}}
	got := roundTrip(t, msg)
	require.Equal(t, msg, got)
}

func TestRoundTripError(t *testing.T) {
	msg := protocol.Error{
		ReqType:   protocol.TypeCall,
		RequestID: 5,
		Details:   protocol.Dict{},
		URI:       "wamp.error.no_such_procedure",
	}
	got := roundTrip(t, msg)
	require.Equal(t, msg, got)
}

func TestRoundTripEvent(t *testing.T) {
	msg := protocol.Event{
		SubscriptionID: 3,
		PublicationID:  7,
		Details:        protocol.Dict{},
		Args:           protocol.List{"a"},
	}
	got := roundTrip(t, msg)
	require.Equal(t, msg, got)
}

func TestRoundTripHelloWelcomeGoodbye(t *testing.T) {
	hello := protocol.Hello{Realm: "realm1", Details: protocol.Dict{"roles": protocol.Dict{}}}
	require.Equal(t, hello, roundTrip(t, hello))

	welcome := protocol.Welcome{SessionID: 42, Details: protocol.Dict{}}
	require.Equal(t, welcome, roundTrip(t, welcome))

	goodbye := protocol.Goodbye{Details: protocol.Dict{}, Reason: "wamp.close.close_realm"}
	require.Equal(t, goodbye, roundTrip(t, goodbye))
}

func TestUnmarshalTooShort(t *testing.T) {
	_, err := protocol.Unmarshal(protocol.List{protocol.TypeCall, int64(1)})
	require.Error(t, err)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := protocol.Unmarshal(protocol.List{int64(999)})
	require.Error(t, err)
}

func TestUnmarshalToleratesFloat64Codes(t *testing.T) {
	// JSON decoders hand back float64 for every number.
	wire := protocol.List{float64(protocol.TypeSubscribed), float64(1), float64(2)}
	msg, err := protocol.Unmarshal(wire)
	require.NoError(t, err)
	require.Equal(t, protocol.Subscribed{RequestID: 1, SubscriptionID: 2}, msg)
}
