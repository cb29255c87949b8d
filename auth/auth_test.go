package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/protocol"
)

func TestTicketAuthenticate(t *testing.T) {
	a := auth.NewTicket("alice", "s3cr3t")
	reply, err := a.Authenticate(protocol.Challenge{})
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", reply.Signature)
}

func TestWAMPCRAUnsalted(t *testing.T) {
	a := auth.NewWAMPCRA("alice", "secret123")
	reply, err := a.Authenticate(protocol.Challenge{Extra: protocol.Dict{"challenge": "abc123"}})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Signature)

	// Deterministic for the same inputs.
	again, err := a.Authenticate(protocol.Challenge{Extra: protocol.Dict{"challenge": "abc123"}})
	require.NoError(t, err)
	require.Equal(t, reply.Signature, again.Signature)
}

func TestWAMPCRASalted(t *testing.T) {
	a := auth.NewWAMPCRA("alice", "secret123")
	extra := protocol.Dict{
		"challenge":  "abc123",
		"salt":       "salt123",
		"iterations": 100,
		"keylen":     16,
	}
	reply, err := a.Authenticate(protocol.Challenge{Extra: extra})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Signature)
}

func TestWAMPCRAMissingChallenge(t *testing.T) {
	a := auth.NewWAMPCRA("alice", "secret123")
	_, err := a.Authenticate(protocol.Challenge{Extra: protocol.Dict{}})
	require.Error(t, err)
}

func TestCryptoSignRoundTrip(t *testing.T) {
	privHex, pubHex, err := auth.GenerateCryptoSignKeyPair()
	require.NoError(t, err)

	a, err := auth.NewCryptoSign("alice", privHex)
	require.NoError(t, err)
	require.Equal(t, pubHex, a.PublicKeyHex())

	challengeHex, err := auth.GenerateCryptoSignChallenge()
	require.NoError(t, err)

	reply, err := a.Authenticate(protocol.Challenge{Extra: protocol.Dict{"challenge": challengeHex}})
	require.NoError(t, err)

	pub, err := hex.DecodeString(pubHex)
	require.NoError(t, err)

	ok, err := auth.VerifyCryptoSignSignature(reply.Signature, pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAnonymousRejectsChallenge(t *testing.T) {
	a := auth.NewAnonymous("anon")
	require.Equal(t, "anonymous", a.AuthMethod())
	_, err := a.Authenticate(protocol.Challenge{})
	require.Error(t, err)
}
