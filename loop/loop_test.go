// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package loop_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/msgpackrpc/loop"
)

// backends returns every Loop implementation this platform builds, so the
// behavioral tests below run against epoll and poll identically: both must
// satisfy the same single-goroutine dispatch contract.
func backends(t *testing.T) map[string]loop.Loop {
	t.Helper()
	epoll, err := loop.NewEpoll()
	if err != nil {
		t.Fatalf("NewEpoll: %v", err)
	}
	return map[string]loop.Loop{
		"epoll": epoll,
		"poll":  loop.NewPoll(),
	}
}

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestLoop_AttachSocket_FiresOnReadable(t *testing.T) {
	t.Parallel()

	for name, l := range backends(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a, b := socketpair(t)
			go l.Start()
			defer l.Stop()

			readable := make(chan struct{}, 1)
			l.AttachSocket(a, func() { readable <- struct{}{} }, nil, nil)

			if _, err := unix.Write(b, []byte("x")); err != nil {
				t.Fatalf("write: %v", err)
			}

			select {
			case <-readable:
			case <-time.After(2 * time.Second):
				t.Fatalf("onReadable never fired")
			}
		})
	}
}

func TestLoop_DetachSocket_StopsDelivery(t *testing.T) {
	t.Parallel()

	for name, l := range backends(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a, b := socketpair(t)
			go l.Start()
			defer l.Stop()

			fired := make(chan struct{}, 8)
			l.AttachSocket(a, func() { fired <- struct{}{} }, nil, nil)
			l.DetachSocket(a)

			if _, err := unix.Write(b, []byte("x")); err != nil {
				t.Fatalf("write: %v", err)
			}

			select {
			case <-fired:
				t.Fatalf("onReadable fired after DetachSocket")
			case <-time.After(200 * time.Millisecond):
			}
		})
	}
}

func TestLoop_AttachPeriodic_FiresRepeatedly(t *testing.T) {
	t.Parallel()

	for name, l := range backends(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			go l.Start()
			defer l.Stop()

			ticks := make(chan struct{}, 8)
			l.AttachPeriodic(func() {
				select {
				case ticks <- struct{}{}:
				default:
				}
			}, 10*time.Millisecond)

			for i := 0; i < 2; i++ {
				select {
				case <-ticks:
				case <-time.After(2 * time.Second):
					t.Fatalf("periodic callback fired fewer than 2 times")
				}
			}
		})
	}
}

func TestLoop_StartStop_Resumable(t *testing.T) {
	t.Parallel()

	for name, l := range backends(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			done := make(chan struct{})
			go func() {
				l.Start()
				close(done)
			}()

			time.Sleep(20 * time.Millisecond)
			l.Stop()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("Start did not return after Stop")
			}

			a, b := socketpair(t)
			readable := make(chan struct{}, 1)
			l.AttachSocket(a, func() { readable <- struct{}{} }, nil, nil)

			go l.Start()
			defer l.Stop()

			if _, err := unix.Write(b, []byte("y")); err != nil {
				t.Fatalf("write: %v", err)
			}

			select {
			case <-readable:
			case <-time.After(2 * time.Second):
				t.Fatalf("onReadable never fired after resuming Start")
			}
		})
	}
}
