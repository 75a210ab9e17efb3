// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"code.hybscloud.com/iox"

	"code.hybscloud.com/msgpackrpc/internal/netfd"
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/rpcerr"
)

// ServerListener binds and listens on an Address, accepting connections and
// wrapping each in a Socket, per spec.md §4.5. Every accepted connection is
// handed to OnAccept immediately so the caller can wire per-connection
// request/notify routing before the first byte is read.
type ServerListener struct {
	addr Address
	loop loop.Loop
	fd   int

	closed bool

	// OnAccept is called once per accepted connection, synchronously from
	// the readability callback that observed it.
	OnAccept func(sock *Socket)
}

// NewServerListener binds addr and starts accepting. The listener owns the
// listening fd for its lifetime; call Close to release it.
func NewServerListener(addr Address, l loop.Loop, onAccept func(sock *Socket)) (*ServerListener, error) {
	_, port, err := addr.Unpack()
	if err != nil {
		return nil, rpcerr.Transport(err.Error())
	}

	fd, err := netfd.Listen(port)
	if err != nil {
		return nil, rpcerr.Transport(err.Error())
	}

	sl := &ServerListener{addr: addr, loop: l, fd: fd, OnAccept: onAccept}
	l.AttachSocket(fd, sl.onAcceptable, nil, sl.onError)
	return sl, nil
}

func (sl *ServerListener) onAcceptable() {
	for {
		fd, err := netfd.Accept(sl.fd)
		if err != nil {
			if err == iox.ErrWouldBlock {
				return
			}
			return
		}
		sock := newSocket(fd, sl.loop, false)
		if sl.OnAccept != nil {
			sl.OnAccept(sock)
		}
	}
}

func (sl *ServerListener) onError() {
	sl.Close()
}

// Close stops accepting and releases the listening fd. Idempotent.
func (sl *ServerListener) Close() error {
	if sl.closed {
		return nil
	}
	sl.closed = true
	sl.loop.DetachSocket(sl.fd)
	return netfd.Close(sl.fd)
}
