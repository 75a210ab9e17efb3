// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport owns one non-blocking TCP socket per connection (the
// Framed Socket of spec.md §4.3), the outbound client connection lifecycle
// (§4.4), and the inbound listener (§4.5). All three are built directly on
// golang.org/x/sys/unix through internal/netfd, driven by a loop.Loop.
package transport

import (
	"io"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/msgpackrpc/codec"
	"code.hybscloud.com/msgpackrpc/internal/netfd"
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/rpcerr"
)

const (
	// sendChunkSize caps each non-blocking write attempt, per spec.md §4.3.
	sendChunkSize = 128 * 1024
	// readBufSize is how much is read per readability event, per spec.md §4.3.
	readBufSize = 1024
)

// pendingSend is one queued outbound chunk with the completion callback
// that belongs to the whole message it was split from, attached to its
// final chunk only.
type pendingSend struct {
	data []byte
	done func()
}

// Socket is the Framed Socket of spec.md §4.3: it owns one fd exclusively,
// drains the read buffer into a streaming codec.Unpacker, and maintains a
// chunked non-blocking send queue. Each message's completion callback fires
// once that message's last chunk is written, even if later messages are
// still queued.
//
// A Socket is exclusively owned by whichever ClientTransport or
// ServerListener created it; it holds only a non-owning reference back.
type Socket struct {
	fd   int
	loop loop.Loop

	packer   *codec.Packer
	unpacker *codec.Unpacker

	outChunks []pendingSend
	connecting bool
	closed     bool

	// OnRequest, OnNotify, OnResponse dispatch a successfully decoded
	// message. OnConnect/OnConnectFailed only fire for a client-side
	// socket still completing its connect. OnClose always fires exactly
	// once, whether the peer hung up or an error closed the socket first.
	OnRequest       func(s Sendable, msgid uint32, method string, params []interface{})
	OnNotify        func(method string, params []interface{})
	OnResponse      func(msgid uint32, errVal, result interface{})
	OnConnect       func()
	OnConnectFailed func()
	OnClose         func()
}

// newSocket wraps an already-created fd. connecting marks a client socket
// still waiting for its non-blocking connect to complete.
func newSocket(fd int, l loop.Loop, connecting bool) *Socket {
	s := &Socket{
		fd:         fd,
		loop:       l,
		packer:     codec.NewPacker(),
		unpacker:   codec.NewUnpacker(),
		connecting: connecting,
	}
	if connecting {
		l.AttachSocket(fd, s.onReadable, s.onWritable, s.onError)
	} else {
		l.AttachSocket(fd, s.onReadable, nil, s.onError)
	}
	return s
}

// Fd returns the underlying file descriptor, for tests and diagnostics.
func (s *Socket) Fd() int { return s.fd }

// SendMessage packs msg, splits it into ≤128KiB chunks, and enqueues them.
// callback, if non-nil, fires once every byte of msg has been written —
// not merely accepted into the kernel's send buffer earlier in the queue.
func (s *Socket) SendMessage(msg codec.Message, callback func()) error {
	if s.closed {
		return rpcerr.ErrClosed
	}
	data, err := s.packer.Pack(msg)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		if callback != nil {
			callback()
		}
		return nil
	}

	for off := 0; off < len(data); off += sendChunkSize {
		end := off + sendChunkSize
		if end > len(data) {
			end = len(data)
		}
		var done func()
		if end == len(data) {
			done = callback
		}
		s.outChunks = append(s.outChunks, pendingSend{data: data[off:end], done: done})
	}

	s.loop.AttachSocket(s.fd, s.onReadable, s.onWritable, s.onError)
	return nil
}

func (s *Socket) onWritable() {
	if s.connecting {
		s.finishConnect()
		return
	}
	s.drainSend()
}

func (s *Socket) finishConnect() {
	s.connecting = false
	if err := netfd.ConnectError(s.fd); err != nil {
		if s.OnConnectFailed != nil {
			s.OnConnectFailed()
		}
		return
	}
	s.loop.AttachSocket(s.fd, s.onReadable, nil, s.onError)
	if s.OnConnect != nil {
		s.OnConnect()
	}
}

func (s *Socket) drainSend() {
	for len(s.outChunks) > 0 {
		head := s.outChunks[0]
		n, err := netfd.Write(s.fd, head.data)
		if err != nil {
			if err == iox.ErrWouldBlock {
				return
			}
			s.ioError(err)
			return
		}
		if n < len(head.data) {
			s.outChunks[0].data = head.data[n:]
			continue
		}
		s.outChunks = s.outChunks[1:]
		if head.done != nil {
			head.done()
		}
	}

	// Queue drained: drop write interest, keep read interest.
	s.loop.AttachSocket(s.fd, s.onReadable, nil, s.onError)
}

func (s *Socket) onReadable() {
	buf := make([]byte, readBufSize)
	n, err := netfd.Read(s.fd, buf)
	if err != nil {
		if err == iox.ErrWouldBlock {
			return
		}
		s.ioError(err)
		return
	}
	if n == 0 {
		// Empty read: peer closed.
		s.ioError(io.EOF)
		return
	}

	s.unpacker.Feed(buf[:n])
	for {
		msg, err := s.unpacker.Next()
		if err != nil {
			if err == iox.ErrMore {
				return
			}
			s.ioError(err)
			return
		}
		s.dispatch(msg)
		if s.closed {
			return
		}
	}
}

func (s *Socket) dispatch(msg codec.Message) {
	switch m := msg.(type) {
	case codec.Request:
		if s.OnRequest != nil {
			s.OnRequest(s, m.MsgID, m.Method, m.Params)
		}
	case codec.Response:
		if s.OnResponse != nil {
			s.OnResponse(m.MsgID, m.Error, m.Result)
		}
	case codec.Notify:
		if s.OnNotify != nil {
			s.OnNotify(m.Method, m.Params)
		}
	}
}

func (s *Socket) onError() {
	if s.connecting {
		s.connecting = false
		if s.OnConnectFailed != nil {
			s.OnConnectFailed()
		}
		return
	}
	s.ioError(rpcerr.Transport("socket error"))
}

// ioError closes the socket once; the only report upward is OnClose, which
// carries no cause. cause is io.EOF for a graceful peer close, a
// ProtocolError for a malformed frame, the raw syscall error of a failed
// read or write, or a TransportError for a loop-reported socket error; it
// is not passed on.
func (s *Socket) ioError(cause error) {
	if s.closed {
		return
	}
	_ = cause
	s.Close()
}

// Close is idempotent: closing an already-closed Socket is a no-op, never
// an error.
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.loop.DetachSocket(s.fd)
	err := netfd.Close(s.fd)
	if s.OnClose != nil {
		s.OnClose()
	}
	return err
}
