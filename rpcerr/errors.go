// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rpcerr defines the MessagePack-RPC error taxonomy shared by the
// codec, transport, session and facade layers.
//
// Every exported sentinel below is meant to be matched with errors.Is; call
// sites attach context with github.com/pkg/errors.Wrap so errors.Cause can
// still recover the underlying syscall or decode error when one exists.
package rpcerr

import "github.com/pkg/errors"

var (
	// ErrProtocol marks a malformed frame, unknown message tag, or wrong
	// array arity. Always fatal to the connection it was read from.
	ErrProtocol = errors.New("msgpackrpc: protocol error")

	// ErrTransport marks a connect failure after retry exhaustion, or an
	// established connection lost unexpectedly.
	ErrTransport = errors.New("msgpackrpc: transport error")

	// ErrTimeout marks a request that exceeded its deadline before a
	// response arrived.
	ErrTimeout = errors.New("msgpackrpc: request timed out")

	// ErrRemote wraps an error value returned by the peer in a Response
	// frame's error slot.
	ErrRemote = errors.New("msgpackrpc: remote error")

	// ErrNoMethod marks a request for a method the dispatcher does not
	// expose. It is never seen by callers directly: the server converts it
	// into an ErrRemote on the wire before the caller's Future resolves.
	ErrNoMethod = errors.New("msgpackrpc: method not found")

	// ErrEncoding marks a pack-side failure (value has no msgpack
	// representation) or an unpack-side decode failure.
	ErrEncoding = errors.New("msgpackrpc: encoding error")

	// ErrClosed is returned by any operation attempted on a session,
	// transport, or socket after Close has already run.
	ErrClosed = errors.New("msgpackrpc: use of closed connection")
)

// Protocol builds a ProtocolError whose message is format applied to args;
// errors.Is matches it against ErrProtocol.
func Protocol(format string, args ...interface{}) error {
	return &taggedError{tag: ErrProtocol, err: errors.Errorf(format, args...)}
}

// Transport builds a TransportError carrying msg.
func Transport(msg string) error {
	return &taggedError{tag: ErrTransport, err: errors.New(msg)}
}

// Timeout builds a TimeoutError carrying msg.
func Timeout(msg string) error {
	return &taggedError{tag: ErrTimeout, err: errors.New(msg)}
}

// Remote builds a RemoteError wrapping the value the peer sent back in the
// Response's error slot. value is typically a string, but MessagePack-RPC
// allows any msgpack value there, so Remote stringifies it the same way the
// reference implementation's dispatch() does with str(e).
func Remote(value interface{}) error {
	return &taggedError{tag: ErrRemote, err: errors.Errorf("%v", value), value: value}
}

// NoMethod builds a NoMethodError for the given method name.
func NoMethod(method string) error {
	return &taggedError{tag: ErrNoMethod, err: errors.Errorf("'%s' method not found", method)}
}

// Encoding wraps err, if non-nil, as an EncodingError.
func Encoding(err error) error {
	if err == nil {
		return nil
	}
	return &taggedError{tag: ErrEncoding, err: errors.Wrap(err, "encoding error")}
}

// taggedError lets errors.Is match against one of the package sentinels
// while errors.Unwrap/errors.Cause still reaches the concrete message.
type taggedError struct {
	tag   error
	err   error
	value interface{}
}

func (e *taggedError) Error() string { return e.err.Error() }
func (e *taggedError) Unwrap() error { return e.err }
func (e *taggedError) Is(target error) bool {
	return target == e.tag
}

// RemoteValue returns the raw value carried by a Remote error, or nil if err
// is not one.
func RemoteValue(err error) interface{} {
	if te, ok := err.(*taggedError); ok {
		return te.value
	}
	return nil
}
