package xconn

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/serializer"
)

// ConnectionProfile is a YAML-loaded description of how to reach a
// router: URI, realm, serializer choice and auth method/credentials.
// Secrets (ticket, secret, private key) are read from the matching
// environment variable when set, so they never need to live in the
// profile file on disk — grounded in the teacher's env-var-driven
// startup convention in api/cmd/main.go and agents/k8s-agent's
// AgentConfig.
type ConnectionProfile struct {
	URI        string `yaml:"uri"`
	Realm      string `yaml:"realm"`
	Serializer string `yaml:"serializer"` // "json" | "cbor" | "msgpack"
	Auth       struct {
		Method     string `yaml:"method"` // "anonymous" | "ticket" | "wampcra" | "cryptosign"
		AuthID     string `yaml:"authid"`
		Ticket     string `yaml:"ticket,omitempty"`
		Secret     string `yaml:"secret,omitempty"`
		PrivateKey string `yaml:"private_key,omitempty"`
	} `yaml:"auth"`
}

// LoadConnectionProfile reads and parses a YAML connection profile from
// path, then applies XCONN_TICKET/XCONN_SECRET/XCONN_PRIVATE_KEY
// environment overrides for the credential fields.
func LoadConnectionProfile(path string) (ConnectionProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConnectionProfile{}, fmt.Errorf("xconn: failed to read connection profile: %w", err)
	}

	var profile ConnectionProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return ConnectionProfile{}, fmt.Errorf("xconn: failed to parse connection profile: %w", err)
	}

	if v := os.Getenv("XCONN_TICKET"); v != "" {
		profile.Auth.Ticket = v
	}
	if v := os.Getenv("XCONN_SECRET"); v != "" {
		profile.Auth.Secret = v
	}
	if v := os.Getenv("XCONN_PRIVATE_KEY"); v != "" {
		profile.Auth.PrivateKey = v
	}

	return profile, nil
}

// Client builds a Client from the profile's serializer and auth method.
func (p ConnectionProfile) Client() (Client, error) {
	ser, err := p.resolveSerializer()
	if err != nil {
		return Client{}, err
	}

	authenticator, err := p.resolveAuthenticator()
	if err != nil {
		return Client{}, err
	}

	return NewClient(ser, authenticator), nil
}

func (p ConnectionProfile) resolveSerializer() (serializer.Serializer, error) {
	switch p.Serializer {
	case "", "cbor":
		return serializer.CBOR{}, nil
	case "json":
		return serializer.JSON{}, nil
	case "msgpack":
		return serializer.MsgPack{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown serializer %q in connection profile", ErrInvalidRequest, p.Serializer)
	}
}

func (p ConnectionProfile) resolveAuthenticator() (auth.ClientAuthenticator, error) {
	switch p.Auth.Method {
	case "", "anonymous":
		return auth.NewAnonymous(p.Auth.AuthID), nil
	case "ticket":
		return auth.NewTicket(p.Auth.AuthID, p.Auth.Ticket), nil
	case "wampcra":
		return auth.NewWAMPCRA(p.Auth.AuthID, p.Auth.Secret), nil
	case "cryptosign":
		return auth.NewCryptoSign(p.Auth.AuthID, p.Auth.PrivateKey)
	default:
		return nil, fmt.Errorf("%w: unknown auth method %q in connection profile", ErrInvalidRequest, p.Auth.Method)
	}
}
