// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package msgpackrpc is a MessagePack-RPC runtime: a single-threaded,
// cooperative-reactor client and server exchanging Request/Response/Notify
// messages over non-blocking TCP sockets, per spec.md.
//
// A Client dials lazily and reconnects on demand; a Server accepts
// connections and dispatches inbound Requests and Notifies to a Dispatcher.
// Both are driven by a loop.Loop the caller can share across many Clients
// and Servers to multiplex them onto one OS thread.
package msgpackrpc

import (
	"code.hybscloud.com/msgpackrpc/session"
	"code.hybscloud.com/msgpackrpc/transport"
)

// Address is a (host, port) pair identifying a peer to dial or an address
// to listen on.
type Address = transport.Address

// Dispatcher handles one inbound method call.
type Dispatcher = session.Dispatcher

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc = session.DispatcherFunc

// Responder answers exactly one inbound Request.
type Responder = session.Responder

// AsyncResult lets a Dispatcher answer a Request after Dispatch returns.
type AsyncResult = session.AsyncResult

// Future holds the outcome of an in-flight CallAsync.
type Future = session.Future
