package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/xconnio/xconn-go/protocol"
)

// WAMPCRA signs the CHALLENGE.Extra["challenge"] string with
// HMAC-SHA256 over the shared secret. When the challenge's extra carries
// a "salt", the secret is first stretched with PBKDF2-HMAC-SHA256 per
// extra.iterations/extra.keylen, matching the salted WAMP-CRA variant.
type WAMPCRA struct {
	authID string
	secret string
}

func NewWAMPCRA(authID, secret string) WAMPCRA {
	return WAMPCRA{authID: authID, secret: secret}
}

func (WAMPCRA) AuthMethod() string { return "wampcra" }
func (w WAMPCRA) AuthID() string   { return w.authID }

func (w WAMPCRA) Authenticate(challenge protocol.Challenge) (protocol.Authenticate, error) {
	raw, ok := challenge.Extra["challenge"]
	if !ok {
		return protocol.Authenticate{}, fmt.Errorf("auth: wampcra challenge missing 'challenge' field")
	}
	challengeStr, ok := raw.(string)
	if !ok {
		return protocol.Authenticate{}, fmt.Errorf("auth: wampcra challenge field not a string")
	}

	secret := []byte(w.secret)
	if saltRaw, ok := challenge.Extra["salt"]; ok {
		salt, ok := saltRaw.(string)
		if !ok {
			return protocol.Authenticate{}, fmt.Errorf("auth: wampcra salt field not a string")
		}
		iterations := intExtra(challenge.Extra, "iterations", 1000)
		keyLen := intExtra(challenge.Extra, "keylen", 32)
		derived := pbkdf2.Key([]byte(w.secret), []byte(salt), iterations, keyLen, sha256.New)
		secret = []byte(base64.StdEncoding.EncodeToString(derived))
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(challengeStr))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return protocol.Authenticate{Signature: signature, Extra: protocol.Dict{}}, nil
}

func intExtra(extra protocol.Dict, key string, def int) int {
	v, ok := extra[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
