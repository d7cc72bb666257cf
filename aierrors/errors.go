// Package aierrors defines the core's error taxonomy: structured errors
// with a stable numeric code, a coarse kind, and an optional data payload.
package aierrors

import (
	"errors"
	"fmt"
)

// Kind classifies who is responsible for an error.
type Kind string

const (
	// KindUser means the caller misused the API: missing required
	// children, incompatible props, malformed element construction.
	KindUser Kind = "user"
	// KindRuntime means an underlying service the core depends on (a
	// collaborator's provider, a model) failed, or its output could not
	// be interpreted.
	KindRuntime Kind = "runtime"
	// KindInternal means an invariant of the core itself was violated.
	KindInternal Kind = "internal"
)

// Code is a stable, closed enumeration of error conditions. Values below
// 10000 are reserved for the core; collaborators mint their own codes
// starting at CollaboratorCodeBase.
type Code int

const (
	_ Code = iota

	// CodeNilTag: createElement was given a nil or undefined tag.
	CodeNilTag Code = 1000 + iota
	// CodeMissingChildren: a component required children that were absent.
	CodeMissingChildren
	// CodeInvalidProps: a component received props it cannot use.
	CodeInvalidProps
	// CodeRenderFailed: a component body threw while rendering.
	CodeRenderFailed
	// CodeInvariantViolated: the renderer observed a state that should be
	// unreachable under the documented invariants.
	CodeInvariantViolated
	// CodeCancelled: rendering was cancelled cooperatively.
	CodeCancelled
	// CodeModelOutputCouldNotBeParsed: a collaborator's model produced
	// output the core's consumer could not interpret as a Node.
	CodeModelOutputCouldNotBeParsed
	// CodeModelHallucinatedTool: a model requested a tool call that does
	// not exist in the active tool set.
	CodeModelHallucinatedTool
	// CodeChatModelDoesNotSupportFunctions: a tool-use strategy targeted a
	// chat model that cannot accept function/tool definitions.
	CodeChatModelDoesNotSupportFunctions
	// CodeChatCompletionUnexpectedChild: a chat-completion component
	// received a child element it does not know how to interpret.
	CodeChatCompletionUnexpectedChild
	// CodeChatCompletionMissingChildren: a chat-completion component
	// required at least one message child and received none.
	CodeChatCompletionMissingChildren
	// CodeProviderAPIError: a remote provider's API returned a failure.
	CodeProviderAPIError
	// CodeUserInput: the end user's input to a collaborator was invalid
	// in a way the core did not itself detect (distinct from CodeInvalidProps,
	// which is about component props).
	CodeUserInput
)

// CollaboratorCodeBase is the first code value collaborators may use for
// their own errors (spec.md §9: "collaborators add to a separate code range").
const CollaboratorCodeBase Code = 10000

// Error is the core's structured error record: {code, kind, message, data}.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	Data    map[string]any
	// Tag, when non-empty, names the element tag that was rendering when
	// the error surfaced (spec.md §4.C "a component whose body throws
	// surfaces as a rendering error with the failing element tag attached").
	Tag string
	Err error
}

func (e *Error) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("[%s] %s (code=%d): %s", e.Tag, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s (code=%d): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error. err may be nil.
func New(code Code, kind Kind, message string, err error) *Error {
	return &Error{Code: code, Kind: kind, Message: message, Err: err}
}

// WithTag returns a copy of e with Tag set, used by the renderer when it
// attaches the failing element's tag to an error surfaced from its render
// function.
func (e *Error) WithTag(tag string) *Error {
	cp := *e
	cp.Tag = tag
	return &cp
}

// WithData returns a copy of e with a data payload attached.
func (e *Error) WithData(data map[string]any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

// Userf builds a KindUser error with a formatted message.
func Userf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Kind: KindUser, Message: fmt.Sprintf(format, args...)}
}

// Runtimef builds a KindRuntime error with a formatted message.
func Runtimef(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Kind: KindRuntime, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internalf builds a KindInternal error with a formatted message.
func Internalf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// IsCancelled reports whether err is (or wraps) a cancellation error.
func IsCancelled(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == CodeCancelled
	}
	return false
}
