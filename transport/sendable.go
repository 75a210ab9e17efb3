// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "code.hybscloud.com/msgpackrpc/codec"

// Sendable is anything the session package can hand a Message to for
// delivery: a *Socket (server-side reply path, one per accepted
// connection) or a *ClientTransport (client-side call path, which queues
// and reconnects on the caller's behalf).
type Sendable interface {
	SendMessage(msg codec.Message, callback func()) error
}

// Transport is a Sendable that can also be torn down explicitly.
type Transport interface {
	Sendable
	Close() error
}

var (
	_ Sendable  = (*Socket)(nil)
	_ Transport = (*ClientTransport)(nil)
	_ Transport = (*Socket)(nil)
)
