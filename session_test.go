package xconn

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xconnio/xconn-go/protocol"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
)

// fakePeer is an in-process stand-in for a transport.Peer, driven
// directly by a test "router" goroutine instead of a real socket,
// following the teacher's hand-rolled-fake test style
// (api/internal/websocket/agent_hub_test.go's setupHubTest).
type fakePeer struct {
	out       chan []byte
	in        chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakePeer() *fakePeer {
	return &fakePeer{
		out:    make(chan []byte, 16),
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (p *fakePeer) Kind() transport.Kind { return transport.KindWebSocket }

func (p *fakePeer) Write(data []byte) error {
	select {
	case p.out <- data:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

func (p *fakePeer) Read() ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *fakePeer) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// testRouter decodes frames the session writes and lets a test push
// replies straight back in.
type testRouter struct {
	t    *testing.T
	peer *fakePeer
	ser  serializer.Serializer
}

func newTestRouter(t *testing.T, peer *fakePeer) testRouter {
	return testRouter{t: t, peer: peer, ser: serializer.JSON{}}
}

func (r testRouter) recvFromSession(timeout time.Duration) protocol.Message {
	r.t.Helper()
	select {
	case data := <-r.peer.out:
		msg, err := r.ser.Decode(data)
		require.NoError(r.t, err)
		return msg
	case <-time.After(timeout):
		r.t.Fatal("timed out waiting for session to write a frame")
		return nil
	}
}

func (r testRouter) sendToSession(msg protocol.Message) {
	r.t.Helper()
	data, err := r.ser.Encode(msg)
	require.NoError(r.t, err)
	r.peer.in <- data
}

func newTestSession(peer *fakePeer) *Session {
	return newSession(peer, serializer.JSON{}, SessionDetails{ID: 1, Realm: "test"})
}

const shortTimeout = 2 * time.Second

// Scenario 1: echo call.
func TestScenarioEchoCall(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	handlerCalled := make(chan Invocation, 1)
	regReq := NewRegisterRequest("io.xconn.echo", func(inv Invocation) Yield {
		handlerCalled <- inv
		return NewYield().WithArgs(inv.Args).WithKwargs(inv.Kwargs)
	})

	go func() {
		regMsg := router.recvFromSession(shortTimeout).(protocol.Register)
		router.sendToSession(protocol.Registered{RequestID: regMsg.RequestID, RegistrationID: 100})
	}()
	regResp, err := session.Register(regReq)
	require.NoError(t, err)
	require.Equal(t, int64(100), regResp.RegistrationID)

	go func() {
		callMsg := router.recvFromSession(shortTimeout).(protocol.Call)
		router.sendToSession(protocol.Invocation{
			RequestID:      99,
			RegistrationID: 100,
			Details:        protocol.Dict{},
			Args:           callMsg.Args,
			Kwargs:         callMsg.Kwargs,
		})
		yieldMsg := router.recvFromSession(shortTimeout).(protocol.Yield)
		router.sendToSession(protocol.Result{RequestID: callMsg.RequestID, Details: protocol.Dict{}, Args: yieldMsg.Args, Kwargs: yieldMsg.Kwargs})
	}()

	resp, err := session.Call(NewCallRequest("io.xconn.echo").Arg(int64(1)).Kwarg("name", "John"))
	require.NoError(t, err)
	require.Nil(t, resp.Err)
	require.Equal(t, List{int64(1)}, resp.Args)
	require.Equal(t, "John", resp.Kwargs["name"])

	inv := <-handlerCalled
	require.Equal(t, "John", inv.Kwargs["name"])
}

// Scenario 2: unacknowledged publish allocates no pending entry and
// returns immediately after the write.
func TestScenarioPublishUnacknowledged(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	resp, err := session.Publish(NewPublishRequest("t").Arg("x"))
	require.NoError(t, err)
	require.Nil(t, resp)
	require.Equal(t, 0, session.publishes.len())

	msg := router.recvFromSession(shortTimeout).(protocol.Publish)
	require.Equal(t, "t", msg.Topic)
}

// Scenario 3: acknowledged publish awaits PUBLISHED.
func TestScenarioPublishAcknowledged(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	go func() {
		msg := router.recvFromSession(shortTimeout).(protocol.Publish)
		router.sendToSession(protocol.Published{RequestID: msg.RequestID, PublicationID: 42})
	}()

	resp, err := session.Publish(NewPublishRequest("t").Arg("x").Option("acknowledge", true))
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Nil(t, resp.Err)
}

// Scenario 4: call error.
func TestScenarioCallError(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	go func() {
		msg := router.recvFromSession(shortTimeout).(protocol.Call)
		router.sendToSession(protocol.Error{
			ReqType:   protocol.TypeCall,
			RequestID: msg.RequestID,
			Details:   protocol.Dict{},
			URI:       "wamp.error.no_such_procedure",
		})
	}()

	resp, err := session.Call(NewCallRequest("bad"))
	require.NoError(t, err)
	require.Nil(t, resp.Args)
	require.Nil(t, resp.Kwargs)
	require.NotNil(t, resp.Err)
	require.Equal(t, "wamp.error.no_such_procedure", resp.Err.URI)
}

// Scenario 5: event fan-out — three EVENTs dispatched, handler invoked
// for each (set equality, order not required).
func TestScenarioEventFanOut(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	received := make(chan string, 3)
	subReq := NewSubscribeRequest("e", func(ev Event) {
		received <- ev.Args[0].(string)
	})

	go func() {
		msg := router.recvFromSession(shortTimeout).(protocol.Subscribe)
		router.sendToSession(protocol.Subscribed{RequestID: msg.RequestID, SubscriptionID: 55})
	}()
	subResp, err := session.Subscribe(subReq)
	require.NoError(t, err)
	require.Equal(t, int64(55), subResp.SubscriptionID)

	for i, payload := range []string{"a", "b", "c"} {
		router.sendToSession(protocol.Event{SubscriptionID: 55, PublicationID: int64(i), Details: protocol.Dict{}, Args: protocol.List{payload}})
	}

	got := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case v := <-received:
			got[v] = true
		case <-time.After(shortTimeout):
			t.Fatal("timed out waiting for event dispatch")
		}
	}
	require.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, got)
}

// Scenario 6: orderly leave — Leave returns only after GOODBYE, and
// WaitDisconnect then returns immediately.
func TestScenarioOrderlyLeave(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	go func() {
		router.recvFromSession(shortTimeout) // the outbound GOODBYE
		router.sendToSession(protocol.Goodbye{Details: protocol.Dict{}, Reason: "wamp.close.goodbye_and_out"})
	}()

	require.NoError(t, session.Leave())

	done := make(chan struct{})
	go func() {
		session.WaitDisconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shortTimeout):
		t.Fatal("WaitDisconnect did not complete after Leave")
	}
}

// P2: pending-calls map size tracks outstanding requests exactly.
func TestPendingCallsMapSize(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	const n = 5
	replies := make(chan struct{}, n)
	go func() {
		msgs := make([]protocol.Call, 0, n)
		for i := 0; i < n; i++ {
			msgs = append(msgs, router.recvFromSession(shortTimeout).(protocol.Call))
		}
		// Every call is pending and none has been answered yet.
		require.Equal(t, n, session.calls.len())
		for _, msg := range msgs {
			router.sendToSession(protocol.Result{RequestID: msg.RequestID, Details: protocol.Dict{}})
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Call(NewCallRequest("p"))
			require.NoError(t, err)
			replies <- struct{}{}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, session.calls.len())
}

// P3: request ids are strictly increasing and distinct.
func TestRequestIDsMonotonic(t *testing.T) {
	gen := newIDGenerator()
	seen := map[int64]bool{}
	var prev int64
	for i := 0; i < 1000; i++ {
		id := gen.next()
		require.Greater(t, id, prev)
		require.False(t, seen[id])
		seen[id] = true
		prev = id
	}
}

// P5: an unsolicited RESULT with no matching pending entry is dropped
// silently; the session keeps working afterward.
func TestUnsolicitedResultIsDropped(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	router.sendToSession(protocol.Result{RequestID: 9999, Details: protocol.Dict{}})

	go func() {
		msg := router.recvFromSession(shortTimeout).(protocol.Call)
		router.sendToSession(protocol.Result{RequestID: msg.RequestID, Details: protocol.Dict{}, Args: protocol.List{"ok"}})
	}()
	resp, err := session.Call(NewCallRequest("p"))
	require.NoError(t, err)
	require.Equal(t, List{"ok"}, resp.Args)
}

// P7: after the router sends GOODBYE unprompted, WaitDisconnect
// completes and a subsequent op fails with ErrTransport.
func TestRouterInitiatedGoodbyeSignalsExit(t *testing.T) {
	peer := newFakePeer()
	session := newTestSession(peer)
	router := newTestRouter(t, peer)

	router.sendToSession(protocol.Goodbye{Details: protocol.Dict{}, Reason: "wamp.close.close_realm"})
	// The session answers in kind; read that GOODBYE off the peer.
	_ = router.recvFromSession(shortTimeout)

	done := make(chan struct{})
	go func() {
		session.WaitDisconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shortTimeout):
		t.Fatal("WaitDisconnect did not complete after router-initiated GOODBYE")
	}

	_, err := session.Call(NewCallRequest("p"))
	require.Error(t, err)
}
