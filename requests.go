package xconn

import "github.com/xconnio/xconn-go/protocol"

// List and Dict mirror the wire value shapes from the protocol package,
// re-exported here so callers never need to import protocol directly
// just to build a request.
type List = protocol.List
type Dict = protocol.Dict

// outgoingRequest is the shared builder behind CallRequest and
// PublishRequest: a URI plus options/args/kwargs with a fluent API,
// grounded in original_source's common/types.rs _OutgoingRequest.
type outgoingRequest struct {
	uri     string
	options Dict
	args    List
	kwargs  Dict
}

func newOutgoingRequest(uri string) outgoingRequest {
	return outgoingRequest{uri: uri, options: Dict{}, kwargs: Dict{}}
}

// CallRequest builds a CALL.
type CallRequest struct{ outgoingRequest }

func NewCallRequest(procedure string) CallRequest {
	return CallRequest{newOutgoingRequest(procedure)}
}

func (r CallRequest) Arg(v any) CallRequest            { r.args = append(r.args, v); return r }
func (r CallRequest) Args(args List) CallRequest        { r.args = args; return r }
func (r CallRequest) Kwarg(k string, v any) CallRequest { r.kwargs[k] = v; return r }
func (r CallRequest) Kwargs(kwargs Dict) CallRequest    { r.kwargs = kwargs; return r }
func (r CallRequest) Option(k string, v any) CallRequest {
	r.options[k] = v
	return r
}
func (r CallRequest) Options(options Dict) CallRequest { r.options = options; return r }

// PublishRequest builds a PUBLISH.
type PublishRequest struct{ outgoingRequest }

func NewPublishRequest(topic string) PublishRequest {
	return PublishRequest{newOutgoingRequest(topic)}
}

func (r PublishRequest) Arg(v any) PublishRequest            { r.args = append(r.args, v); return r }
func (r PublishRequest) Args(args List) PublishRequest        { r.args = args; return r }
func (r PublishRequest) Kwarg(k string, v any) PublishRequest { r.kwargs[k] = v; return r }
func (r PublishRequest) Kwargs(kwargs Dict) PublishRequest    { r.kwargs = kwargs; return r }
func (r PublishRequest) Option(k string, v any) PublishRequest {
	r.options[k] = v
	return r
}
func (r PublishRequest) Options(options Dict) PublishRequest { r.options = options; return r }

func (r PublishRequest) acknowledge() bool {
	ack, _ := r.options["acknowledge"].(bool)
	return ack
}

// RegisterRequest names a procedure and the handler that answers
// INVOCATIONs for it.
type RegisterRequest struct {
	Procedure string
	Options   Dict
	Handler   InvocationHandler
}

func NewRegisterRequest(procedure string, handler InvocationHandler) RegisterRequest {
	return RegisterRequest{Procedure: procedure, Options: Dict{}, Handler: handler}
}

// SubscribeRequest names a topic and the handler that answers EVENTs
// published to it.
type SubscribeRequest struct {
	Topic   string
	Options Dict
	Handler EventHandler
}

func NewSubscribeRequest(topic string, handler EventHandler) SubscribeRequest {
	return SubscribeRequest{Topic: topic, Options: Dict{}, Handler: handler}
}

// Invocation is an inbound RPC request a registered callee must answer
// with a Yield or a WampError.
type Invocation struct {
	Args    List
	Kwargs  Dict
	Details Dict
}

// Event is an inbound PubSub notification delivered to a subscriber.
type Event struct {
	Args    List
	Kwargs  Dict
	Details Dict
}

// InvocationHandler answers an Invocation with a Yield.
type InvocationHandler func(Invocation) Yield

// EventHandler reacts to an Event. It has no reply.
type EventHandler func(Event)

// Yield is the callee's successful (or erroring) reply to an
// Invocation.
type Yield struct {
	Args   List
	Kwargs Dict
	Err    *WampError
}

func NewYield() Yield { return Yield{} }

func (y Yield) WithArgs(args List) Yield    { y.Args = args; return y }
func (y Yield) WithArg(v any) Yield         { y.Args = append(y.Args, v); return y }
func (y Yield) WithKwargs(kwargs Dict) Yield { y.Kwargs = kwargs; return y }
func (y Yield) WithKwarg(k string, v any) Yield {
	if y.Kwargs == nil {
		y.Kwargs = Dict{}
	}
	y.Kwargs[k] = v
	return y
}

// YieldError builds an erroring Yield, answered as an
// ERROR(type=INVOCATION, uri=uri).
func YieldError(uri string) Yield {
	return Yield{Err: &WampError{URI: uri}}
}

// CallResponse is the result of a call().
type CallResponse struct {
	Args   List
	Kwargs Dict
	Err    *WampError
}

// PublishResponse is the result of an acknowledged publish().
type PublishResponse struct {
	Err *WampError
}

// RegisterResponse is the result of a register().
type RegisterResponse struct {
	RegistrationID int64
	Err            *WampError
}

// SubscribeResponse is the result of a subscribe().
type SubscribeResponse struct {
	SubscriptionID int64
	Err            *WampError
}
