package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/xconnio/xconn-go/protocol"
)

// CryptoSign signs the 32-byte CHALLENGE.Extra["challenge"] (hex-encoded)
// with Ed25519. The wire signature is the hex-encoded Ed25519 signature
// followed by the hex-encoded challenge itself, the convention used by
// the wider WAMP tooling (see GenerateCryptoSignChallenge/
// SignCryptoSignChallenge below).
type CryptoSign struct {
	authID     string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewCryptoSign builds a CryptoSign authenticator from a 64-character hex
// Ed25519 private key seed.
func NewCryptoSign(authID, privateKeyHex string) (CryptoSign, error) {
	seed, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return CryptoSign{}, fmt.Errorf("auth: invalid cryptosign private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return CryptoSign{}, fmt.Errorf("auth: cryptosign private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return CryptoSign{authID: authID, privateKey: priv, publicKey: pub}, nil
}

func (CryptoSign) AuthMethod() string  { return "cryptosign" }
func (c CryptoSign) AuthID() string    { return c.authID }
func (c CryptoSign) PublicKeyHex() string { return hex.EncodeToString(c.publicKey) }

func (c CryptoSign) Authenticate(challenge protocol.Challenge) (protocol.Authenticate, error) {
	raw, ok := challenge.Extra["challenge"]
	if !ok {
		return protocol.Authenticate{}, fmt.Errorf("auth: cryptosign challenge missing 'challenge' field")
	}
	challengeHex, ok := raw.(string)
	if !ok {
		return protocol.Authenticate{}, fmt.Errorf("auth: cryptosign challenge field not a string")
	}

	signature, err := SignCryptoSignChallenge(challengeHex, c.privateKey)
	if err != nil {
		return protocol.Authenticate{}, err
	}
	return protocol.Authenticate{Signature: signature, Extra: protocol.Dict{}}, nil
}

// GenerateCryptoSignKeyPair returns a fresh (privateKeyHex, publicKeyHex)
// Ed25519 keypair.
func GenerateCryptoSignKeyPair() (string, string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("auth: failed to generate cryptosign keypair: %w", err)
	}
	seed := priv.Seed()
	return hex.EncodeToString(seed), hex.EncodeToString(pub), nil
}

// GenerateCryptoSignChallenge returns a fresh 32-byte hex-encoded challenge,
// as a router-side authenticator would produce for CHALLENGE.Extra.
func GenerateCryptoSignChallenge() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: failed to generate cryptosign challenge: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SignCryptoSignChallenge signs the hex-encoded challenge with the given
// Ed25519 private key (32-byte seed or 64-byte expanded key), returning
// the hex-encoded signature concatenated with the hex-encoded challenge.
func SignCryptoSignChallenge(challengeHex string, privateKeyBytes []byte) (string, error) {
	challenge, err := hex.DecodeString(challengeHex)
	if err != nil {
		return "", fmt.Errorf("auth: invalid challenge hex: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(privateKeyBytes) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(privateKeyBytes)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(privateKeyBytes)
	default:
		return "", fmt.Errorf("auth: invalid cryptosign private key length %d", len(privateKeyBytes))
	}

	sig := ed25519.Sign(priv, challenge)
	return hex.EncodeToString(sig) + challengeHex, nil
}

// VerifyCryptoSignSignature verifies a hex signature+challenge blob
// produced by SignCryptoSignChallenge against a raw 32-byte Ed25519
// public key.
func VerifyCryptoSignSignature(signature string, publicKey []byte) (bool, error) {
	raw, err := hex.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("auth: invalid signature hex: %w", err)
	}
	if len(raw) < ed25519.SignatureSize {
		return false, fmt.Errorf("auth: signature too short")
	}
	sig, challenge := raw[:ed25519.SignatureSize], raw[ed25519.SignatureSize:]
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("auth: invalid public key length %d", len(publicKey))
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), challenge, sig), nil
}
