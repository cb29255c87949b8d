// Package transport implements the framed duplex byte-message channels
// ("peers") a Session reads WAMP frames from and writes them to:
// WebSocket and RawSocket.
package transport

// Kind identifies which transport a Peer rides on.
type Kind int

const (
	KindWebSocket Kind = 1
	KindRawSocket Kind = 2
)

// Peer is a message-framed duplex byte channel to a router. Read never
// returns a partial frame and never merges two. Write is safe to call
// from any number of concurrent producers; Read is called from exactly
// one consumer — the session's reader loop.
type Peer interface {
	Kind() Kind
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}
