// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !windows

package loop

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollLoop is the portable reactor backend: plain poll(2), rebuilt each
// iteration from the current registration set. It costs an O(n) scan per
// wakeup instead of epoll's O(1) readiness list, but needs nothing beyond
// what every unix.Poll-supporting GOOS already exposes through
// golang.org/x/sys/unix — the same dependency the default backend uses,
// just the lower-common-denominator syscall.
type pollLoop struct {
	mu    sync.Mutex
	order []int
	socks map[int]*socketReg

	periodicFn     func()
	periodicPeriod time.Duration
	nextFire       time.Time

	running bool
	stopCh  chan struct{}
}

// NewPoll constructs the portable reactor backend.
func NewPoll() Loop {
	return &pollLoop{socks: make(map[int]*socketReg)}
}

func (l *pollLoop) AttachSocket(fd int, onReadable, onWritable, onError func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.socks[fd]; !exists {
		l.order = append(l.order, fd)
	}
	l.socks[fd] = &socketReg{onReadable: onReadable, onWritable: onWritable, onError: onError}
}

func (l *pollLoop) DetachSocket(fd int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.socks[fd]; !exists {
		return
	}
	delete(l.socks, fd)
	for i, v := range l.order {
		if v == fd {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *pollLoop) AttachPeriodic(fn func(), period time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.periodicFn = fn
	l.periodicPeriod = period
	l.nextFire = time.Now().Add(period)
}

func (l *pollLoop) DetachPeriodic() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.periodicFn = nil
}

func (l *pollLoop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	stopCh := l.stopCh
	l.mu.Unlock()

	for {
		select {
		case <-stopCh:
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			return
		default:
		}

		l.mu.Lock()
		fds := make([]unix.PollFd, 0, len(l.order))
		regs := make([]*socketReg, 0, len(l.order))
		for _, fd := range l.order {
			reg := l.socks[fd]
			var events int16
			if reg.onReadable != nil {
				events |= unix.POLLIN
			}
			if reg.onWritable != nil {
				events |= unix.POLLOUT
			}
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
			regs = append(regs, reg)
		}
		l.mu.Unlock()

		timeout := l.nextTimeoutMillis()
		_, err := unix.Poll(fds, timeout)
		if err != nil && err != unix.EINTR {
			continue
		}

		l.firePeriodicIfDue()

		for i, pfd := range fds {
			if pfd.Revents == 0 {
				continue
			}
			reg := regs[i]
			if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 && reg.onError != nil {
				reg.onError()
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 && reg.onReadable != nil {
				reg.onReadable()
			}
			if pfd.Revents&unix.POLLOUT != 0 && reg.onWritable != nil {
				reg.onWritable()
			}
		}
	}
}

func (l *pollLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running || l.stopCh == nil {
		return
	}
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
}

func (l *pollLoop) nextTimeoutMillis() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.periodicFn == nil {
		if len(l.order) == 0 {
			return 100
		}
		return -1
	}
	d := time.Until(l.nextFire)
	if d <= 0 {
		return 0
	}
	ms := int(d.Milliseconds())
	if ms <= 0 {
		return 1
	}
	return ms
}

func (l *pollLoop) firePeriodicIfDue() {
	l.mu.Lock()
	fn := l.periodicFn
	due := fn != nil && !time.Now().Before(l.nextFire)
	if due {
		l.nextFire = time.Now().Add(l.periodicPeriod)
	}
	l.mu.Unlock()

	if due {
		fn()
	}
}
