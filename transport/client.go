// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"code.hybscloud.com/msgpackrpc/codec"
	"code.hybscloud.com/msgpackrpc/internal/netfd"
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/rpcerr"
)

// ClientState is the lifecycle of a ClientTransport, per spec.md §4.4.
type ClientState int

const (
	StateIdle ClientState = iota
	StateConnecting
	StateConnected
	StateClosed
)

type queuedSend struct {
	msg      codec.Message
	callback func()
}

// ClientTransport owns the outbound connect-and-reconnect lifecycle for one
// peer Address. At most one connect attempt is ever in flight; messages
// sent while StateIdle or StateConnecting are queued and flushed once the
// underlying Socket reports OnConnect.
//
// ClientTransport never imports the session package: OnResponse and
// OnConnectFailed are supplied by whoever constructs it, keeping the
// dependency arrow pointing from session to transport, not back.
type ClientTransport struct {
	addr Address
	loop loop.Loop

	reconnectLimit  uint32
	connectAttempts uint32

	state   ClientState
	sock    *Socket
	pending []queuedSend

	onResponse      func(msgid uint32, errVal, result interface{})
	onRequest       func(s Sendable, msgid uint32, method string, params []interface{})
	onNotify        func(method string, params []interface{})
	onConnectFailed func(err error)
	onClose         func()
}

// NewClientTransport constructs a ClientTransport bound to addr. The three
// callbacks mirror the Socket callbacks a session.Session cares about;
// onConnectFailed additionally receives an error once the reconnect budget
// is exhausted.
func NewClientTransport(
	addr Address,
	l loop.Loop,
	reconnectLimit uint32,
	onResponse func(msgid uint32, errVal, result interface{}),
	onRequest func(s Sendable, msgid uint32, method string, params []interface{}),
	onNotify func(method string, params []interface{}),
	onConnectFailed func(err error),
	onClose func(),
) *ClientTransport {
	return &ClientTransport{
		addr:            addr,
		loop:            l,
		reconnectLimit:  reconnectLimit,
		onResponse:      onResponse,
		onRequest:       onRequest,
		onNotify:        onNotify,
		onConnectFailed: onConnectFailed,
		onClose:         onClose,
	}
}

// State reports the current lifecycle state.
func (c *ClientTransport) State() ClientState { return c.state }

// SendMessage queues msg for delivery, connecting first if idle. callback
// fires once msg is fully written to the peer.
func (c *ClientTransport) SendMessage(msg codec.Message, callback func()) error {
	if c.state == StateClosed {
		return rpcerr.ErrClosed
	}
	if c.state == StateConnected {
		return c.sock.SendMessage(msg, callback)
	}

	c.pending = append(c.pending, queuedSend{msg: msg, callback: callback})
	if c.state == StateIdle {
		return c.connect()
	}
	return nil
}

// connect makes one connect attempt, counted against reconnectLimit whether
// it fails synchronously (bad address, socket/connect syscall error) or
// later, asynchronously, once the non-blocking connect itself completes —
// either way it is one attempt, and both paths must retry or fail the same.
func (c *ClientTransport) connect() error {
	c.connectAttempts++

	ip, port, err := c.addr.Unpack()
	if err != nil {
		return c.retryOrFail()
	}

	fd, err := netfd.NewStreamSocket()
	if err != nil {
		return c.retryOrFail()
	}
	if err := netfd.Connect(fd, ip, port); err != nil {
		_ = netfd.Close(fd)
		return c.retryOrFail()
	}

	c.state = StateConnecting

	sock := newSocket(fd, c.loop, true)
	sock.OnConnect = func() { c.onSocketConnected(sock) }
	sock.OnConnectFailed = func() { c.retryOrFail() }
	sock.OnRequest = c.onRequest
	sock.OnNotify = c.onNotify
	sock.OnResponse = c.onResponse
	sock.OnClose = func() { c.onSocketClosed(sock) }
	c.sock = sock
	return nil
}

func (c *ClientTransport) onSocketConnected(sock *Socket) {
	c.state = StateConnected
	c.connectAttempts = 0
	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		_ = sock.SendMessage(p.msg, p.callback)
	}
}

func (c *ClientTransport) onSocketClosed(sock *Socket) {
	if c.sock != sock {
		return
	}
	if c.state == StateClosed {
		return
	}
	c.state = StateIdle
	c.sock = nil
	if c.onClose != nil {
		c.onClose()
	}
}

// retryOrFail is reached once per failed connect attempt. Once the budget
// is exhausted the caller sees the same message the reference
// implementation's retry counter reports, regardless of which underlying
// syscall failed on the last attempt.
func (c *ClientTransport) retryOrFail() error {
	if c.reconnectLimit > 0 && c.connectAttempts >= c.reconnectLimit {
		return c.failConnect(rpcerr.Transport("Retry connection over the limit"))
	}
	c.state = StateIdle
	c.sock = nil
	return c.connect()
}

func (c *ClientTransport) failConnect(cause error) error {
	c.state = StateIdle
	c.pending = nil
	if c.onConnectFailed != nil {
		c.onConnectFailed(cause)
	}
	return cause
}

// Close tears down the active socket, if any, and discards queued sends.
// Closing an already-closed ClientTransport is a no-op.
func (c *ClientTransport) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	c.pending = nil
	if c.sock != nil {
		err := c.sock.Close()
		c.sock = nil
		return err
	}
	return nil
}
