// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpackrpc

import (
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/session"
	"code.hybscloud.com/msgpackrpc/transport"
)

// Server accepts connections on an Address and dispatches inbound
// Requests/Notifies on each to a Dispatcher, per spec.md §4.5 and §4.7.
//
// Each accepted connection gets its own Session so a handler can also call
// back into that particular client (e.g. spec.md's bidirectional
// callback pattern) without interfering with any other connection.
type Server struct {
	loop     loop.Loop
	listener *transport.ServerListener

	dispatcher   Dispatcher
	timeoutSteps int

	sessions map[*transport.Socket]*session.Session
}

// NewServer binds addr and starts accepting connections. opts.Dispatcher
// handles every inbound Request/Notify on every connection.
func NewServer(addr Address, opts ...Option) (*Server, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		loop:         o.Loop,
		dispatcher:   o.Dispatcher,
		timeoutSteps: o.TimeoutSteps,
		sessions:     make(map[*transport.Socket]*session.Session),
	}

	listener, err := transport.NewServerListener(addr, o.Loop, srv.onAccept)
	if err != nil {
		return nil, err
	}
	srv.listener = listener
	return srv, nil
}

func (srv *Server) onAccept(sock *transport.Socket) {
	sess := session.NewSession(sock, srv.loop, srv.timeoutSteps, srv.dispatcher)
	srv.sessions[sock] = sess

	sock.OnRequest = sess.OnRequest
	sock.OnNotify = sess.OnNotify
	sock.OnResponse = sess.OnResponse
	sock.OnClose = func() { delete(srv.sessions, sock) }
}

// Start runs the Server's loop until Stop is called. If the Server shares
// its loop with other Clients/Servers (via WithLoop), call the shared
// loop's Start instead and never call Server.Start.
func (srv *Server) Start() { srv.loop.Start() }

// Stop unwinds the current Start call.
func (srv *Server) Stop() { srv.loop.Stop() }

// Close stops accepting connections and closes every active session, one
// after another on the calling goroutine, returning the first session
// error or else the listener's.
func (srv *Server) Close() error {
	listenErr := srv.listener.Close()

	var firstErr error
	for sock, sess := range srv.sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(srv.sessions, sock)
	}
	if firstErr != nil {
		return firstErr
	}
	return listenErr
}
