package protocol

import "fmt"

// Marshal converts a typed Message into its wire representation: a List
// whose first element is the type code, mirroring the WAMP wire table.
// Args/kwargs fields that were never set stay absent rather than present
// as empty collections, matching section 6.1's "[args], {kwargs}"
// optional-tail convention.
func Marshal(msg Message) (List, error) {
	switch m := msg.(type) {
	case Hello:
		return List{TypeHello, m.Realm, dictOrEmpty(m.Details)}, nil
	case Welcome:
		return List{TypeWelcome, m.SessionID, dictOrEmpty(m.Details)}, nil
	case Abort:
		return List{TypeAbort, dictOrEmpty(m.Details), m.Reason}, nil
	case Challenge:
		return List{TypeChallenge, m.AuthMethod, dictOrEmpty(m.Extra)}, nil
	case Authenticate:
		return List{TypeAuthenticate, m.Signature, dictOrEmpty(m.Extra)}, nil
	case Goodbye:
		return List{TypeGoodbye, dictOrEmpty(m.Details), m.Reason}, nil
	case Error:
		out := List{TypeError, m.ReqType, m.RequestID, dictOrEmpty(m.Details), m.URI}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Publish:
		out := List{TypePublish, m.RequestID, dictOrEmpty(m.Options), m.Topic}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Published:
		return List{TypePublished, m.RequestID, m.PublicationID}, nil
	case Subscribe:
		return List{TypeSubscribe, m.RequestID, dictOrEmpty(m.Options), m.Topic}, nil
	case Subscribed:
		return List{TypeSubscribed, m.RequestID, m.SubscriptionID}, nil
	case Unsubscribe:
		return List{TypeUnsubscribe, m.RequestID, m.SubscriptionID}, nil
	case Unsubscribed:
		return List{TypeUnsubscribed, m.RequestID}, nil
	case Event:
		out := List{TypeEvent, m.SubscriptionID, m.PublicationID, dictOrEmpty(m.Details)}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Call:
		out := List{TypeCall, m.RequestID, dictOrEmpty(m.Options), m.Procedure}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Result:
		out := List{TypeResult, m.RequestID, dictOrEmpty(m.Details)}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Register:
		return List{TypeRegister, m.RequestID, dictOrEmpty(m.Options), m.Procedure}, nil
	case Registered:
		return List{TypeRegistered, m.RequestID, m.RegistrationID}, nil
	case Unregister:
		return List{TypeUnregister, m.RequestID, m.RegistrationID}, nil
	case Unregistered:
		return List{TypeUnregistered, m.RequestID}, nil
	case Invocation:
		out := List{TypeInvocation, m.RequestID, m.RegistrationID, dictOrEmpty(m.Details)}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	case Yield:
		out := List{TypeYield, m.RequestID, dictOrEmpty(m.Options)}
		return appendArgsKwargs(out, m.Args, m.Kwargs), nil
	default:
		return nil, fmt.Errorf("protocol: unknown message type %T", msg)
	}
}

// Unmarshal decodes a wire List (as produced by a serializer's generic
// decode of "array of any") into a tagged Message.
func Unmarshal(wire List) (Message, error) {
	if len(wire) == 0 {
		return nil, fmt.Errorf("protocol: empty wire message")
	}
	code, err := toInt(wire[0])
	if err != nil {
		return nil, fmt.Errorf("protocol: invalid type code: %w", err)
	}

	switch code {
	case TypeHello:
		if len(wire) < 3 {
			return nil, errShort("HELLO", 3, wire)
		}
		realm, err := toString(wire[1])
		if err != nil {
			return nil, err
		}
		return Hello{Realm: realm, Details: toDict(wire[2])}, nil

	case TypeWelcome:
		if len(wire) < 3 {
			return nil, errShort("WELCOME", 3, wire)
		}
		id, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		return Welcome{SessionID: id, Details: toDict(wire[2])}, nil

	case TypeAbort:
		if len(wire) < 3 {
			return nil, errShort("ABORT", 3, wire)
		}
		reason, err := toString(wire[2])
		if err != nil {
			return nil, err
		}
		return Abort{Details: toDict(wire[1]), Reason: reason}, nil

	case TypeChallenge:
		if len(wire) < 3 {
			return nil, errShort("CHALLENGE", 3, wire)
		}
		method, err := toString(wire[1])
		if err != nil {
			return nil, err
		}
		return Challenge{AuthMethod: method, Extra: toDict(wire[2])}, nil

	case TypeAuthenticate:
		if len(wire) < 3 {
			return nil, errShort("AUTHENTICATE", 3, wire)
		}
		sig, err := toString(wire[1])
		if err != nil {
			return nil, err
		}
		return Authenticate{Signature: sig, Extra: toDict(wire[2])}, nil

	case TypeGoodbye:
		if len(wire) < 3 {
			return nil, errShort("GOODBYE", 3, wire)
		}
		reason, err := toString(wire[2])
		if err != nil {
			return nil, err
		}
		return Goodbye{Details: toDict(wire[1]), Reason: reason}, nil

	case TypeError:
		if len(wire) < 5 {
			return nil, errShort("ERROR", 5, wire)
		}
		reqType, err := toInt(wire[1])
		if err != nil {
			return nil, err
		}
		reqID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		uri, err := toString(wire[4])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 5)
		return Error{ReqType: reqType, RequestID: reqID, Details: toDict(wire[3]), URI: uri, Args: args, Kwargs: kwargs}, nil

	case TypePublish:
		if len(wire) < 4 {
			return nil, errShort("PUBLISH", 4, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		topic, err := toString(wire[3])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 4)
		return Publish{RequestID: reqID, Options: toDict(wire[2]), Topic: topic, Args: args, Kwargs: kwargs}, nil

	case TypePublished:
		if len(wire) < 3 {
			return nil, errShort("PUBLISHED", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		pubID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		return Published{RequestID: reqID, PublicationID: pubID}, nil

	case TypeSubscribe:
		if len(wire) < 4 {
			return nil, errShort("SUBSCRIBE", 4, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		topic, err := toString(wire[3])
		if err != nil {
			return nil, err
		}
		return Subscribe{RequestID: reqID, Options: toDict(wire[2]), Topic: topic}, nil

	case TypeSubscribed:
		if len(wire) < 3 {
			return nil, errShort("SUBSCRIBED", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		subID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		return Subscribed{RequestID: reqID, SubscriptionID: subID}, nil

	case TypeUnsubscribe:
		if len(wire) < 3 {
			return nil, errShort("UNSUBSCRIBE", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		subID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		return Unsubscribe{RequestID: reqID, SubscriptionID: subID}, nil

	case TypeUnsubscribed:
		if len(wire) < 2 {
			return nil, errShort("UNSUBSCRIBED", 2, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		return Unsubscribed{RequestID: reqID}, nil

	case TypeEvent:
		if len(wire) < 4 {
			return nil, errShort("EVENT", 4, wire)
		}
		subID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		pubID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 4)
		return Event{SubscriptionID: subID, PublicationID: pubID, Details: toDict(wire[3]), Args: args, Kwargs: kwargs}, nil

	case TypeCall:
		if len(wire) < 4 {
			return nil, errShort("CALL", 4, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		proc, err := toString(wire[3])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 4)
		return Call{RequestID: reqID, Options: toDict(wire[2]), Procedure: proc, Args: args, Kwargs: kwargs}, nil

	case TypeResult:
		if len(wire) < 3 {
			return nil, errShort("RESULT", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 3)
		return Result{RequestID: reqID, Details: toDict(wire[2]), Args: args, Kwargs: kwargs}, nil

	case TypeRegister:
		if len(wire) < 4 {
			return nil, errShort("REGISTER", 4, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		proc, err := toString(wire[3])
		if err != nil {
			return nil, err
		}
		return Register{RequestID: reqID, Options: toDict(wire[2]), Procedure: proc}, nil

	case TypeRegistered:
		if len(wire) < 3 {
			return nil, errShort("REGISTERED", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		regID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		return Registered{RequestID: reqID, RegistrationID: regID}, nil

	case TypeUnregister:
		if len(wire) < 3 {
			return nil, errShort("UNREGISTER", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		regID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		return Unregister{RequestID: reqID, RegistrationID: regID}, nil

	case TypeUnregistered:
		if len(wire) < 2 {
			return nil, errShort("UNREGISTERED", 2, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		return Unregistered{RequestID: reqID}, nil

	case TypeInvocation:
		if len(wire) < 4 {
			return nil, errShort("INVOCATION", 4, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		regID, err := toInt64(wire[2])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 4)
		return Invocation{RequestID: reqID, RegistrationID: regID, Details: toDict(wire[3]), Args: args, Kwargs: kwargs}, nil

	case TypeYield:
		if len(wire) < 3 {
			return nil, errShort("YIELD", 3, wire)
		}
		reqID, err := toInt64(wire[1])
		if err != nil {
			return nil, err
		}
		args, kwargs := splitArgsKwargs(wire, 3)
		return Yield{RequestID: reqID, Options: toDict(wire[2]), Args: args, Kwargs: kwargs}, nil

	default:
		return nil, fmt.Errorf("protocol: unknown message type code %d", code)
	}
}

func appendArgsKwargs(out List, args List, kwargs Dict) List {
	if len(kwargs) > 0 {
		return append(out, listOrEmpty(args), kwargs)
	}
	if len(args) > 0 {
		return append(out, listOrEmpty(args))
	}
	return out
}

// splitArgsKwargs reads the optional [args] and {kwargs} tail starting at
// position idx, whichever of the two is present.
func splitArgsKwargs(wire List, idx int) (List, Dict) {
	var args List
	var kwargs Dict
	if len(wire) > idx {
		args = toList(wire[idx])
	}
	if len(wire) > idx+1 {
		kwargs = toDict(wire[idx+1])
	}
	return args, kwargs
}

func dictOrEmpty(d Dict) Dict {
	if d == nil {
		return Dict{}
	}
	return d
}

func listOrEmpty(l List) List {
	if l == nil {
		return List{}
	}
	return l
}

func toDict(v any) Dict {
	switch m := v.(type) {
	case Dict:
		return m
	case map[any]any:
		out := make(Dict, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out
	default:
		return Dict{}
	}
}

func toList(v any) List {
	switch l := v.(type) {
	case List:
		return l
	default:
		return nil
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("protocol: expected string, got %T", v)
	}
}

func toInt(v any) (int, error) {
	i, err := toInt64(v)
	return int(i), err
}

// toInt64 tolerates the numeric type zoo that JSON/CBOR/MsgPack decoders
// hand back (float64 for JSON, int64/uint64 for CBOR, and the smallest
// fitting sized integer kind, e.g. int8 or uint16, for MsgPack).
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("protocol: expected integer, got %T", v)
	}
}

func errShort(name string, want int, wire List) error {
	return fmt.Errorf("protocol: %s message too short: want >= %d fields, got %d", name, want, len(wire))
}
