// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

// Package netfd wraps the handful of raw, non-blocking TCP socket syscalls
// the transport layer needs, built directly on golang.org/x/sys/unix
// instead of net.Conn: spec.md §4.3–§4.5 describe socket lifecycle in terms
// of fds, EWOULDBLOCK/EAGAIN/EINPROGRESS, and SO_REUSEADDR, which this
// package exposes one-to-one.
package netfd

import (
	"net"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

// NewStreamSocket creates a non-blocking IPv4 TCP socket, analogous to
// socket.socket(AF_INET, SOCK_STREAM) followed by setblocking(False) in the
// reference implementation.
func NewStreamSocket() (fd int, err error) {
	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

// Connect starts a non-blocking connect to ip:port. A nil error here only
// means the connect was accepted for processing; completion (success or
// failure) is observed later via a writability or error event on the loop,
// confirmed with ConnectError.
func Connect(fd int, ip net.IP, port uint16) error {
	var sa unix.SockaddrInet4
	sa.Port = int(port)
	copy(sa.Addr[:], ip.To4())

	err := unix.Connect(fd, &sa)
	if err == nil || err == unix.EINPROGRESS || err == unix.EALREADY {
		return nil
	}
	return err
}

// ConnectError reports whether a non-blocking connect succeeded, inspecting
// SO_ERROR the way a reactor must once the fd becomes writable.
func ConnectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno == 0 {
		return nil
	}
	return unix.Errno(errno)
}

// Listen creates, binds, and listens on a non-blocking socket bound to
// 0.0.0.0:port with SO_REUSEADDR set and a backlog of 5, mirroring
// ServerListener.listen in the reference implementation exactly.
func Listen(port uint16) (fd int, err error) {
	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	sa := &unix.SockaddrInet4{Port: int(port)}
	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err = unix.Listen(fd, 5); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Accept accepts one pending connection as a non-blocking socket. It
// returns iox.ErrWouldBlock when no connection is pending, matching the
// error vocabulary the rest of the transport layer uses.
func Accept(listenFd int) (fd int, err error) {
	fd, _, err = unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if isWouldBlock(err) {
			return -1, iox.ErrWouldBlock
		}
		return -1, err
	}
	return fd, nil
}

// Read reads up to len(buf) bytes. It maps EAGAIN/EWOULDBLOCK to
// iox.ErrWouldBlock so callers share one non-blocking vocabulary across the
// codec and transport layers.
func Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Write writes up to len(buf) bytes, returning iox.ErrWouldBlock when the
// socket's send buffer is full.
func Write(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Close closes fd. Closing an already-closed fd returns the underlying
// EBADF; callers are expected to close each fd exactly once.
func Close(fd int) error {
	return unix.Close(fd)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
