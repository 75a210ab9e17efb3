// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package session implements the call/notify engine on top of a
// transport.Transport (§4.6) and the inbound request dispatch engine on
// top of a transport.Sendable (§4.7) described by spec.md. Both halves
// share the same reactor model: every method here must be invoked from the
// goroutine that drives the owning loop.Loop.
package session

import (
	"fmt"
	"time"

	"code.hybscloud.com/msgpackrpc/codec"
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/rpcerr"
	"code.hybscloud.com/msgpackrpc/transport"
)

// tickPeriod is the granularity of the timeout tick: timeoutSteps passed to
// NewSession counts ticks of this length, matching the reference
// implementation's one-second loop::attach_periodic_function call.
const tickPeriod = time.Second

// Session is the client-side call engine: it assigns msgids, tracks
// outstanding Futures, and turns the cooperative reactor loop into a
// blocking Call for callers that don't want to manage futures by hand.
type Session struct {
	sendable transport.Transport
	loop     loop.Loop

	ids   idGenerator
	table *requestTable

	// timeoutSteps is how many ticks a Future survives with no Response
	// before it fails with a TimeoutError. Zero disables the deadline.
	timeoutSteps int

	dispatcher Dispatcher
}

// NewSession wires a Session to sendable for outbound traffic and l for
// both readiness events and the timeout tick. dispatcher handles any
// Request the peer sends back over the same connection; pass nil if this
// Session never receives inbound calls.
func NewSession(sendable transport.Transport, l loop.Loop, timeoutSteps int, dispatcher Dispatcher) *Session {
	s := &Session{
		sendable:     sendable,
		loop:         l,
		table:        newRequestTable(),
		timeoutSteps: timeoutSteps,
		dispatcher:   dispatcher,
	}
	l.AttachPeriodic(s.table.tick, tickPeriod)
	return s
}

// OnResponse resolves the Future waiting on msgid, if any. It is wired as
// the transport.Socket's OnResponse callback by whoever constructs the
// underlying transport.
func (s *Session) OnResponse(msgid uint32, errVal, result interface{}) {
	f, ok := s.table.pop(msgid)
	if !ok {
		return
	}
	if errVal != nil {
		f.SetError(errVal)
	} else {
		f.SetResult(result)
	}
}

// OnRequest routes an inbound Request to the configured Dispatcher. With no
// Dispatcher configured, every inbound Request is answered with a
// NoMethodError.
func (s *Session) OnRequest(sendable transport.Sendable, msgid uint32, method string, params []interface{}) {
	r := newResponder(sendable, msgid)
	if s.dispatcher == nil {
		r.Error(rpcerr.NoMethod(method).Error())
		return
	}
	dispatchRecovering(s.dispatcher, method, params, r)
}

// OnNotify routes an inbound Notify to the Dispatcher with a NullResponder,
// matching spec.md §4.7's rule that a Notify never gets a Response.
func (s *Session) OnNotify(method string, params []interface{}) {
	if s.dispatcher == nil {
		return
	}
	dispatchRecovering(s.dispatcher, method, params, NullResponder)
}

// dispatchRecovering runs one Dispatch call, converting a panicking handler
// into a RemoteError reply instead of letting it take down the reactor
// goroutine. A Notify's NullResponder silently drops the reply, same as any
// other error it is handed.
func dispatchRecovering(d Dispatcher, method string, params []interface{}, r *Responder) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Error(fmt.Sprintf("%v", rec))
		}
	}()
	d.Dispatch(method, params, r)
}

// OnConnectFailed fails every outstanding Future, since a connect failure
// on a reconnecting ClientTransport means none of them will ever see a
// Response on this attempt.
func (s *Session) OnConnectFailed(err error) {
	s.table.failAll(rpcerr.Transport(err.Error()))
}

// CallAsync sends method(params) and returns a Future the caller can poll
// or wait on later without blocking the reactor now.
func (s *Session) CallAsync(method string, params []interface{}) (*Future, error) {
	msgid := s.ids.Next()
	f := newFuture(s.timeoutSteps)
	s.table.add(msgid, f)

	req := codec.Request{MsgID: msgid, Method: method, Params: params}
	if err := s.sendable.SendMessage(req, nil); err != nil {
		s.table.pop(msgid)
		f.fail(err)
		return f, err
	}
	return f, nil
}

// Call sends method(params) and blocks the calling goroutine, pumping the
// loop, until the matching Response arrives or the call times out.
//
// Call must not be invoked re-entrantly from inside a Dispatch callback
// running on the same loop; spec.md §5 treats the loop as owned by exactly
// one blocking entry point at a time.
func (s *Session) Call(method string, params []interface{}) (interface{}, error) {
	f, err := s.CallAsync(method, params)
	if err != nil {
		return nil, err
	}
	return s.Wait(f)
}

// Wait pumps the loop until f settles, then returns its outcome. It is the
// blocking half of CallAsync, usable to wait on a Future obtained earlier.
func (s *Session) Wait(f *Future) (interface{}, error) {
	if f.State() == FuturePending {
		s.awaitFuture(f)
	}
	return f.Get()
}

func (s *Session) awaitFuture(f *Future) {
	prevOnSettled := f.onSettled
	f.onSettled = func() {
		if prevOnSettled != nil {
			prevOnSettled()
		}
		s.loop.Stop()
	}
	s.loop.Start()
	f.onSettled = prevOnSettled
}

// Notify sends method(params) as a one-way Notify. There is no Response to
// wait for and no Future is created, but Notify still blocks the calling
// goroutine, pumping the loop, until the message is fully flushed to the
// peer — a freshly-connecting transport only queues bytes until the loop
// runs, so returning early would hand the caller a false guarantee.
func (s *Session) Notify(method string, params []interface{}) error {
	flushed := false
	err := s.sendable.SendMessage(codec.Notify{Method: method, Params: params}, func() {
		flushed = true
		s.loop.Stop()
	})
	if err != nil {
		return err
	}
	if !flushed {
		s.loop.Start()
	}
	return nil
}

// Close tears down the underlying transport and fails every outstanding
// Future with a TransportError.
func (s *Session) Close() error {
	s.table.failAll(rpcerr.Transport("session closed"))
	return s.sendable.Close()
}
