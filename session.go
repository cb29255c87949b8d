package xconn

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xconnio/xconn-go/internal/logging"
	"github.com/xconnio/xconn-go/protocol"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
)

// SessionDetails is fixed at WELCOME and immutable for the session's
// lifetime.
type SessionDetails struct {
	ID       int64
	Realm    string
	AuthID   string
	AuthRole string
}

// pendingMap is a single-shot reply registry keyed by request id: one
// map per outstanding operation class, each independently locked, the
// generic counterpart of the teacher's AgentHub.connections map guarded
// by its own sync.RWMutex.
type pendingMap[T any] struct {
	mu sync.Mutex
	m  map[int64]chan T
}

func newPendingMap[T any]() *pendingMap[T] {
	return &pendingMap[T]{m: make(map[int64]chan T)}
}

func (p *pendingMap[T]) insert(id int64) chan T {
	ch := make(chan T, 1)
	p.mu.Lock()
	p.m[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *pendingMap[T]) pop(id int64) (chan T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.m[id]
	if ok {
		delete(p.m, id)
	}
	return ch, ok
}

func (p *pendingMap[T]) remove(id int64) {
	p.mu.Lock()
	delete(p.m, id)
	p.mu.Unlock()
}

func (p *pendingMap[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// drainClosed closes every outstanding channel with no value, so a
// waiter on the other end observes "transport closed" instead of
// blocking forever.
func (p *pendingMap[T]) drainClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.m {
		close(ch)
		delete(p.m, id)
	}
}

// handlerMap is the registrations/subscriptions registry: read under a
// short lock in the reader, released before the handler itself runs.
type handlerMap[T any] struct {
	mu sync.RWMutex
	m  map[int64]T
}

func newHandlerMap[T any]() *handlerMap[T] {
	return &handlerMap[T]{m: make(map[int64]T)}
}

func (h *handlerMap[T]) set(id int64, v T) {
	h.mu.Lock()
	h.m[id] = v
	h.mu.Unlock()
}

func (h *handlerMap[T]) get(id int64) (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.m[id]
	return v, ok
}

func (h *handlerMap[T]) delete(id int64) {
	h.mu.Lock()
	delete(h.m, id)
	h.mu.Unlock()
}

// Session is a joined WAMP session: one shared peer, one reader task,
// and the registries that correlate outbound requests with inbound
// replies and route inbound invocations/events to installed handlers.
type Session struct {
	peer    transport.Peer
	ser     serializer.Serializer
	ids     *idGenerator
	details SessionDetails
	log     zerolog.Logger

	calls        *pendingMap[CallResponse]
	registers    *pendingMap[RegisterResponse]
	subscribes   *pendingMap[SubscribeResponse]
	publishes    *pendingMap[PublishResponse]
	unregisters  *pendingMap[error]
	unsubscribes *pendingMap[error]

	registrations *handlerMap[InvocationHandler]
	subscriptions *handlerMap[EventHandler]

	goodbyeMu   sync.Mutex
	goodbyeSent bool

	goodbyeAcked chan struct{}
	goodbyeOnce  sync.Once

	exit     chan struct{}
	exitOnce sync.Once
}

func newSession(peer transport.Peer, ser serializer.Serializer, details SessionDetails) *Session {
	s := &Session{
		peer:          peer,
		ser:           ser,
		ids:           newIDGenerator(),
		details:       details,
		log:           logging.Component(logging.ForSession(uuid.NewString()), "session"),
		calls:         newPendingMap[CallResponse](),
		registers:     newPendingMap[RegisterResponse](),
		subscribes:    newPendingMap[SubscribeResponse](),
		publishes:     newPendingMap[PublishResponse](),
		unregisters:   newPendingMap[error](),
		unsubscribes:  newPendingMap[error](),
		registrations: newHandlerMap[InvocationHandler](),
		subscriptions: newHandlerMap[EventHandler](),
		goodbyeAcked:  make(chan struct{}),
		exit:          make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Details returns the session's immutable WELCOME details.
func (s *Session) Details() SessionDetails { return s.details }

func (s *Session) send(msg protocol.Message) error {
	data, err := s.ser.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: encode failed: %v", ErrProtocol, err)
	}
	if err := s.peer.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// Call performs a CALL and awaits RESULT/ERROR.
func (s *Session) Call(req CallRequest) (CallResponse, error) {
	id := s.ids.next()
	ch := s.calls.insert(id)

	err := s.send(protocol.Call{
		RequestID: id,
		Options:   req.options,
		Procedure: req.uri,
		Args:      req.args,
		Kwargs:    req.kwargs,
	})
	if err != nil {
		s.calls.remove(id)
		return CallResponse{}, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return CallResponse{}, fmt.Errorf("%w: connection closed while awaiting call reply", ErrTransport)
		}
		return reply, nil
	case <-s.exit:
		s.calls.remove(id)
		return CallResponse{}, fmt.Errorf("%w: session closed while awaiting call reply", ErrTransport)
	}
}

// Publish performs a PUBLISH. When the request's "acknowledge" option
// is not true, it returns immediately after the write succeeds and
// never allocates a pending entry (property P4); otherwise it awaits
// PUBLISHED/ERROR.
func (s *Session) Publish(req PublishRequest) (*PublishResponse, error) {
	id := s.ids.next()
	ack := req.acknowledge()

	var ch chan PublishResponse
	if ack {
		ch = s.publishes.insert(id)
	}

	err := s.send(protocol.Publish{
		RequestID: id,
		Options:   req.options,
		Topic:     req.uri,
		Args:      req.args,
		Kwargs:    req.kwargs,
	})
	if err != nil {
		if ack {
			s.publishes.remove(id)
		}
		return nil, err
	}

	if !ack {
		return nil, nil
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed while awaiting publish ack", ErrTransport)
		}
		return &reply, nil
	case <-s.exit:
		s.publishes.remove(id)
		return nil, fmt.Errorf("%w: session closed while awaiting publish ack", ErrTransport)
	}
}

// Register performs a REGISTER and, on success, installs req.Handler
// under the assigned registration id before returning.
func (s *Session) Register(req RegisterRequest) (RegisterResponse, error) {
	id := s.ids.next()
	ch := s.registers.insert(id)

	options := req.Options
	if options == nil {
		options = Dict{}
	}

	err := s.send(protocol.Register{RequestID: id, Options: options, Procedure: req.Procedure})
	if err != nil {
		s.registers.remove(id)
		return RegisterResponse{}, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return RegisterResponse{}, fmt.Errorf("%w: connection closed while awaiting register reply", ErrTransport)
		}
		if reply.Err == nil {
			s.registrations.set(reply.RegistrationID, req.Handler)
		}
		return reply, nil
	case <-s.exit:
		s.registers.remove(id)
		return RegisterResponse{}, fmt.Errorf("%w: session closed while awaiting register reply", ErrTransport)
	}
}

// Unregister performs an UNREGISTER and, on success, removes the
// handler installed for registrationID.
func (s *Session) Unregister(registrationID int64) error {
	id := s.ids.next()
	ch := s.unregisters.insert(id)

	err := s.send(protocol.Unregister{RequestID: id, RegistrationID: registrationID})
	if err != nil {
		s.unregisters.remove(id)
		return err
	}

	select {
	case replyErr, ok := <-ch:
		if !ok {
			return fmt.Errorf("%w: connection closed while awaiting unregister reply", ErrTransport)
		}
		if replyErr == nil {
			s.registrations.delete(registrationID)
		}
		return replyErr
	case <-s.exit:
		s.unregisters.remove(id)
		return fmt.Errorf("%w: session closed while awaiting unregister reply", ErrTransport)
	}
}

// Subscribe performs a SUBSCRIBE and, on success, installs
// req.Handler under the assigned subscription id before returning.
func (s *Session) Subscribe(req SubscribeRequest) (SubscribeResponse, error) {
	id := s.ids.next()
	ch := s.subscribes.insert(id)

	options := req.Options
	if options == nil {
		options = Dict{}
	}

	err := s.send(protocol.Subscribe{RequestID: id, Options: options, Topic: req.Topic})
	if err != nil {
		s.subscribes.remove(id)
		return SubscribeResponse{}, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return SubscribeResponse{}, fmt.Errorf("%w: connection closed while awaiting subscribe reply", ErrTransport)
		}
		if reply.Err == nil {
			s.subscriptions.set(reply.SubscriptionID, req.Handler)
		}
		return reply, nil
	case <-s.exit:
		s.subscribes.remove(id)
		return SubscribeResponse{}, fmt.Errorf("%w: session closed while awaiting subscribe reply", ErrTransport)
	}
}

// Unsubscribe performs an UNSUBSCRIBE and, on success, removes the
// handler installed for subscriptionID.
func (s *Session) Unsubscribe(subscriptionID int64) error {
	id := s.ids.next()
	ch := s.unsubscribes.insert(id)

	err := s.send(protocol.Unsubscribe{RequestID: id, SubscriptionID: subscriptionID})
	if err != nil {
		s.unsubscribes.remove(id)
		return err
	}

	select {
	case replyErr, ok := <-ch:
		if !ok {
			return fmt.Errorf("%w: connection closed while awaiting unsubscribe reply", ErrTransport)
		}
		if replyErr == nil {
			s.subscriptions.delete(subscriptionID)
		}
		return replyErr
	case <-s.exit:
		s.unsubscribes.remove(id)
		return fmt.Errorf("%w: session closed while awaiting unsubscribe reply", ErrTransport)
	}
}

// Leave sends GOODBYE and waits for the router's acknowledging
// GOODBYE before returning.
func (s *Session) Leave() error {
	s.goodbyeMu.Lock()
	s.goodbyeSent = true
	s.goodbyeMu.Unlock()

	if err := s.send(protocol.Goodbye{Details: Dict{}, Reason: "wamp.close.close_realm"}); err != nil {
		return err
	}

	<-s.goodbyeAcked
	return nil
}

// WaitDisconnect blocks until the session's reader has terminated,
// whether via orderly GOODBYE or an abrupt transport failure.
func (s *Session) WaitDisconnect() {
	<-s.exit
}

func (s *Session) signalGoodbyeAcked() {
	s.goodbyeOnce.Do(func() { close(s.goodbyeAcked) })
}

func (s *Session) signalExit() {
	s.exitOnce.Do(func() { close(s.exit) })
}

// readLoop is the session's sole reader/dispatcher task (spec.md 4.4).
// It owns the only call to peer.Read; every outbound write instead goes
// through peer.Write's own internal lock, so there is never a second
// reader to race against.
func (s *Session) readLoop() {
	defer func() {
		s.calls.drainClosed()
		s.registers.drainClosed()
		s.subscribes.drainClosed()
		s.publishes.drainClosed()
		s.unregisters.drainClosed()
		s.unsubscribes.drainClosed()
		// Signal goodbyeAcked too: if the transport died before a
		// GOODBYE round-trip completed, a concurrent Leave() call
		// must not hang forever waiting for an ack that will never
		// come.
		s.signalGoodbyeAcked()
		s.signalExit()
	}()

	for {
		frame, err := s.peer.Read()
		if err != nil {
			s.log.Debug().Err(err).Msg("peer read failed, terminating session")
			return
		}

		msg, err := s.ser.Decode(frame)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to decode inbound frame, terminating session")
			return
		}

		if s.dispatch(msg) {
			return
		}
	}
}

// dispatch applies the message-type dispatch table from spec.md 4.4.
// It returns true when the reader should terminate (GOODBYE).
func (s *Session) dispatch(msg protocol.Message) bool {
	switch m := msg.(type) {
	case protocol.Registered:
		if ch, ok := s.registers.pop(m.RequestID); ok {
			ch <- RegisterResponse{RegistrationID: m.RegistrationID}
		}
	case protocol.Unregistered:
		if ch, ok := s.unregisters.pop(m.RequestID); ok {
			ch <- nil
		}
	case protocol.Subscribed:
		if ch, ok := s.subscribes.pop(m.RequestID); ok {
			ch <- SubscribeResponse{SubscriptionID: m.SubscriptionID}
		}
	case protocol.Unsubscribed:
		if ch, ok := s.unsubscribes.pop(m.RequestID); ok {
			ch <- nil
		}
	case protocol.Result:
		if ch, ok := s.calls.pop(m.RequestID); ok {
			ch <- CallResponse{Args: m.Args, Kwargs: m.Kwargs}
		}
	case protocol.Published:
		if ch, ok := s.publishes.pop(m.RequestID); ok {
			ch <- PublishResponse{}
		}
	case protocol.Invocation:
		s.dispatchInvocation(m)
	case protocol.Event:
		s.dispatchEvent(m)
	case protocol.Error:
		s.dispatchError(m)
	case protocol.Goodbye:
		s.goodbyeMu.Lock()
		sent := s.goodbyeSent
		s.goodbyeMu.Unlock()
		if sent {
			s.signalGoodbyeAcked()
		} else {
			// Router-initiated close: answer in kind so it can free
			// its side, then tear down.
			_ = s.send(protocol.Goodbye{Details: Dict{}, Reason: "wamp.close.goodbye_and_out"})
		}
		return true
	default:
		// Forward-compatible: unknown message types are ignored.
	}
	return false
}

func (s *Session) dispatchError(m protocol.Error) {
	var werr *WampError
	if m.URI != "" {
		werr = &WampError{URI: m.URI, Args: m.Args, Kwargs: m.Kwargs}
	}
	switch m.ReqType {
	case protocol.TypeCall:
		if ch, ok := s.calls.pop(m.RequestID); ok {
			ch <- CallResponse{Err: werr}
		}
	case protocol.TypeRegister:
		if ch, ok := s.registers.pop(m.RequestID); ok {
			ch <- RegisterResponse{Err: werr}
		}
	case protocol.TypeUnregister:
		if ch, ok := s.unregisters.pop(m.RequestID); ok {
			ch <- werr
		}
	case protocol.TypeSubscribe:
		if ch, ok := s.subscribes.pop(m.RequestID); ok {
			ch <- SubscribeResponse{Err: werr}
		}
	case protocol.TypeUnsubscribe:
		if ch, ok := s.unsubscribes.pop(m.RequestID); ok {
			ch <- werr
		}
	case protocol.TypePublish:
		if ch, ok := s.publishes.pop(m.RequestID); ok {
			ch <- PublishResponse{Err: werr}
		}
	default:
		s.log.Debug().Int("reqType", m.ReqType).Msg("ERROR for unknown originating request type, ignored")
	}
}

// dispatchInvocation runs the registered handler on a detached
// goroutine so a slow or blocking callee implementation never stalls
// the reader.
func (s *Session) dispatchInvocation(m protocol.Invocation) {
	handler, ok := s.registrations.get(m.RegistrationID)
	if !ok {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("invocation handler panicked")
				_ = s.send(protocol.Error{
					ReqType:   protocol.TypeInvocation,
					RequestID: m.RequestID,
					Details:   Dict{},
					URI:       "wamp.error.runtime_error",
				})
			}
		}()

		yield := handler(Invocation{Args: m.Args, Kwargs: m.Kwargs, Details: m.Details})
		if yield.Err != nil {
			_ = s.send(protocol.Error{
				ReqType:   protocol.TypeInvocation,
				RequestID: m.RequestID,
				Details:   Dict{},
				URI:       yield.Err.URI,
				Args:      yield.Err.Args,
				Kwargs:    yield.Err.Kwargs,
			})
			return
		}
		_ = s.send(protocol.Yield{RequestID: m.RequestID, Options: Dict{}, Args: yield.Args, Kwargs: yield.Kwargs})
	}()
}

// dispatchEvent runs the subscribed handler on a detached goroutine.
// Per spec.md's design notes, per-subscription ordering across
// concurrently dispatched handlers is not guaranteed.
func (s *Session) dispatchEvent(m protocol.Event) {
	handler, ok := s.subscriptions.get(m.SubscriptionID)
	if !ok {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("event handler panicked")
			}
		}()
		handler(Event{Args: m.Args, Kwargs: m.Kwargs, Details: m.Details})
	}()
}
