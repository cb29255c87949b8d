package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketPeer wraps a gorilla/websocket connection as a Peer. Each WAMP
// frame is exactly one WebSocket data message; binary selects the
// Binary vs Text opcode, negotiated from the serializer's subprotocol.
// Writes are serialized with a mutex since gorilla/websocket connections
// are not safe for concurrent writers, the same guard the teacher places
// around its connection struct in agents/k8s-agent/connection.go and
// api/internal/websocket/agent_hub.go.
type WebSocketPeer struct {
	conn    *websocket.Conn
	binary  bool
	writeMu sync.Mutex
}

// DialWebSocket opens a WebSocket connection to uri, negotiating the
// given subprotocol (the serializer's Subprotocol()).
func DialWebSocket(uri, subprotocol string, binary bool) (*WebSocketPeer, error) {
	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}}
	conn, _, err := dialer.Dial(uri, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket dial failed: %w", err)
	}
	return NewWebSocketPeer(conn, binary), nil
}

// NewWebSocketPeer wraps an already-established websocket.Conn, e.g. one
// accepted server-side in a test harness.
func NewWebSocketPeer(conn *websocket.Conn, binary bool) *WebSocketPeer {
	return &WebSocketPeer{conn: conn, binary: binary}
}

func (p *WebSocketPeer) Kind() Kind { return KindWebSocket }

func (p *WebSocketPeer) Read() ([]byte, error) {
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("transport: websocket read failed: %w", err)
	}
	return data, nil
}

func (p *WebSocketPeer) Write(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	opcode := websocket.TextMessage
	if p.binary {
		opcode = websocket.BinaryMessage
	}
	if err := p.conn.WriteMessage(opcode, data); err != nil {
		return fmt.Errorf("transport: websocket write failed: %w", err)
	}
	return nil
}

func (p *WebSocketPeer) Close() error {
	return p.conn.Close()
}
