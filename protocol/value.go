// Package protocol implements the WAMP v2 wire message types and the
// codec between those types and their list-encoded wire representation.
package protocol

// List is the ordered-list shape used for WAMP positional arguments.
type List = []any

// Dict is the string-keyed mapping shape used for WAMP options, details
// and keyword arguments.
type Dict = map[string]any
