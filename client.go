// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpackrpc

import (
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/session"
	"code.hybscloud.com/msgpackrpc/transport"
)

// Client is a MessagePack-RPC client bound to one peer Address. It dials
// lazily on the first Call/Notify and reconnects on demand, per spec.md
// §4.4 and §4.6.
type Client struct {
	loop    loop.Loop
	conn    *transport.ClientTransport
	session *session.Session
}

// NewClient constructs a Client for addr. Pass WithLoop to share a reactor
// with other Clients/Servers; otherwise NewClient creates its own, which
// runs only while Call/Wait/Notify/Start pump it.
func NewClient(addr Address, opts ...Option) (*Client, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	c := &Client{loop: o.Loop}

	var sess *session.Session
	conn := transport.NewClientTransport(
		addr,
		o.Loop,
		o.ReconnectLimit,
		func(msgid uint32, errVal, result interface{}) { sess.OnResponse(msgid, errVal, result) },
		func(s transport.Sendable, msgid uint32, method string, params []interface{}) {
			sess.OnRequest(s, msgid, method, params)
		},
		func(method string, params []interface{}) { sess.OnNotify(method, params) },
		func(err error) { sess.OnConnectFailed(err) },
		nil,
	)
	sess = session.NewSession(conn, o.Loop, o.TimeoutSteps, o.Dispatcher)

	c.conn = conn
	c.session = sess
	return c, nil
}

// Call invokes method(params) on the server and blocks until the Response
// arrives, the connection fails, or the call times out.
func (c *Client) Call(method string, params ...interface{}) (interface{}, error) {
	return c.session.Call(method, params)
}

// CallAsync invokes method(params) and returns a Future without blocking.
func (c *Client) CallAsync(method string, params ...interface{}) (*Future, error) {
	return c.session.CallAsync(method, params)
}

// Wait blocks until f settles, pumping the Client's loop.
func (c *Client) Wait(f *Future) (interface{}, error) {
	return c.session.Wait(f)
}

// Notify sends method(params) as a one-way message with no Response.
func (c *Client) Notify(method string, params ...interface{}) error {
	return c.session.Notify(method, params)
}

// Start runs the Client's loop until Stop is called. Only needed when the
// Client must keep receiving inbound Requests/Notifies (or background
// Responses) independent of any blocking Call; Call and Wait already pump
// the loop for their own duration.
func (c *Client) Start() { c.loop.Start() }

// Stop unwinds the current Start call.
func (c *Client) Stop() { c.loop.Stop() }

// Close tears down the connection and fails every outstanding call.
func (c *Client) Close() error {
	return c.session.Close()
}
