// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"code.hybscloud.com/msgpackrpc/codec"
	"code.hybscloud.com/msgpackrpc/transport"
)

// Dispatcher handles one inbound method call, chosen by the server facade
// per connection, per spec.md §4.7. Dispatch is called synchronously from
// the reactor goroutine; a handler that needs to defer its answer calls
// responder.Async and resolves the returned AsyncResult later from a
// callback scheduled on the same loop — Socket and Responder are not
// safe to touch concurrently from another goroutine. A panicking Dispatch
// never reaches the reactor goroutine's caller: Session.OnRequest/OnNotify
// recover it and reply with a RemoteError carrying the panic value instead.
type Dispatcher interface {
	Dispatch(method string, params []interface{}, responder *Responder)
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(method string, params []interface{}, responder *Responder)

func (f DispatcherFunc) Dispatch(method string, params []interface{}, responder *Responder) {
	f(method, params, responder)
}

// Responder answers exactly one inbound Request. Once Result or Error has
// sent a reply, every later Result/Error call on the same Responder,
// directly or through an AsyncResult, is a no-op. Async itself sends
// nothing and does not count as a reply.
type Responder struct {
	sendable transport.Sendable
	msgid    uint32
	replied  bool
}

func newResponder(sendable transport.Sendable, msgid uint32) *Responder {
	return &Responder{sendable: sendable, msgid: msgid}
}

// Result sends v back as a successful Response.
func (r *Responder) Result(v interface{}) {
	if r.replied {
		return
	}
	r.replied = true
	_ = r.sendable.SendMessage(codec.Response{MsgID: r.msgid, Error: nil, Result: v}, nil)
}

// Error sends errVal back as the Response's error field. errVal travels
// as-is over the wire; it is up to the peer to interpret it.
func (r *Responder) Error(errVal interface{}) {
	if r.replied {
		return
	}
	r.replied = true
	_ = r.sendable.SendMessage(codec.Response{MsgID: r.msgid, Error: errVal, Result: nil}, nil)
}

// Async detaches the reply from the current dispatch call, returning an
// AsyncResult the handler resolves once its deferred work completes.
func (r *Responder) Async() *AsyncResult {
	return &AsyncResult{responder: r}
}

// NullResponder discards every reply; it answers Notify messages, which
// per spec.md §2 never carry a msgid and therefore never expect one.
var NullResponder = &Responder{sendable: discardSendable{}, replied: true}

type discardSendable struct{}

func (discardSendable) SendMessage(codec.Message, func()) error { return nil }

// AsyncResult is returned by Responder.Async for a handler that wants to
// answer a Request later instead of before Dispatch returns.
type AsyncResult struct {
	responder *Responder
}

// SetResult answers the deferred Request with v.
func (a *AsyncResult) SetResult(v interface{}) { a.responder.Result(v) }

// SetError answers the deferred Request with errVal as its error field.
func (a *AsyncResult) SetError(errVal interface{}) { a.responder.Error(errVal) }
