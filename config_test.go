package xconn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/serializer"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConnectionProfileWAMPCRA(t *testing.T) {
	path := writeProfile(t, `
uri: ws://localhost:8080/ws
realm: realm1
serializer: json
auth:
  method: wampcra
  authid: alice
  secret: s3cr3t
`)

	profile, err := LoadConnectionProfile(path)
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8080/ws", profile.URI)
	require.Equal(t, "realm1", profile.Realm)

	client, err := profile.Client()
	require.NoError(t, err)
	require.IsType(t, serializer.JSON{}, client.Serializer)
	require.IsType(t, auth.WAMPCRA{}, client.Authenticator)
}

func TestLoadConnectionProfileEnvOverride(t *testing.T) {
	path := writeProfile(t, `
uri: ws://localhost:8080/ws
realm: realm1
auth:
  method: ticket
  authid: alice
  ticket: file-ticket
`)

	t.Setenv("XCONN_TICKET", "env-ticket")
	profile, err := LoadConnectionProfile(path)
	require.NoError(t, err)
	require.Equal(t, "env-ticket", profile.Auth.Ticket)
}

func TestConnectionProfileDefaultsToAnonymousAndCBOR(t *testing.T) {
	path := writeProfile(t, `
uri: ws://localhost:8080/ws
realm: realm1
`)

	profile, err := LoadConnectionProfile(path)
	require.NoError(t, err)

	client, err := profile.Client()
	require.NoError(t, err)
	require.IsType(t, serializer.CBOR{}, client.Serializer)
	require.IsType(t, auth.Anonymous{}, client.Authenticator)
}

func TestConnectionProfileRejectsUnknownAuthMethod(t *testing.T) {
	path := writeProfile(t, `
uri: ws://localhost:8080/ws
realm: realm1
auth:
  method: oauth2
`)

	profile, err := LoadConnectionProfile(path)
	require.NoError(t, err)

	_, err = profile.Client()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestLoadConnectionProfileMissingFile(t *testing.T) {
	_, err := LoadConnectionProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
