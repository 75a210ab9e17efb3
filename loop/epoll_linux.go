// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package loop

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollLoop is the default Loop on Linux: one epoll instance, level-
// triggered registrations, and a periodic callback folded into the
// epoll_wait timeout so no extra timer fd is needed.
type epollLoop struct {
	epfd int

	mu    sync.Mutex
	socks map[int]*socketReg

	periodicFn     func()
	periodicPeriod time.Duration
	nextFire       time.Time

	running bool
	stopCh  chan struct{}
}

// NewEpoll constructs the default Linux reactor.
func NewEpoll() (Loop, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollLoop{epfd: fd, socks: make(map[int]*socketReg)}, nil
}

func (l *epollLoop) AttachSocket(fd int, onReadable, onWritable, onError func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reg := &socketReg{onReadable: onReadable, onWritable: onWritable, onError: onError}
	var events uint32
	if onReadable != nil {
		events |= unix.EPOLLIN
	}
	if onWritable != nil {
		events |= unix.EPOLLOUT
	}

	op := unix.EPOLL_CTL_ADD
	if _, exists := l.socks[fd]; exists {
		op = unix.EPOLL_CTL_MOD
	}
	l.socks[fd] = reg
	_ = unix.EpollCtl(l.epfd, op, fd, &unix.EpollEvent{Events: events, Fd: int32(fd)})
}

func (l *epollLoop) DetachSocket(fd int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.socks[fd]; !exists {
		return
	}
	delete(l.socks, fd)
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (l *epollLoop) AttachPeriodic(fn func(), period time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.periodicFn = fn
	l.periodicPeriod = period
	l.nextFire = time.Now().Add(period)
}

func (l *epollLoop) DetachPeriodic() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.periodicFn = nil
}

func (l *epollLoop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	stopCh := l.stopCh
	l.mu.Unlock()

	events := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-stopCh:
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			return
		default:
		}

		timeout := l.nextTimeoutMillis()
		n, err := unix.EpollWait(l.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			continue
		}

		l.firePeriodicIfDue()

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			ev := events[i].Events

			l.mu.Lock()
			reg, ok := l.socks[fd]
			l.mu.Unlock()
			if !ok {
				continue
			}

			if ev&(unix.EPOLLERR|unix.EPOLLHUP) != 0 && reg.onError != nil {
				reg.onError()
				continue
			}
			if ev&unix.EPOLLIN != 0 && reg.onReadable != nil {
				reg.onReadable()
			}
			if ev&unix.EPOLLOUT != 0 && reg.onWritable != nil {
				reg.onWritable()
			}
		}
	}
}

func (l *epollLoop) Stop() {
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

func (l *epollLoop) nextTimeoutMillis() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.periodicFn == nil {
		if len(l.socks) == 0 {
			return 100
		}
		return -1
	}
	d := time.Until(l.nextFire)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms <= 0 {
		return 1
	}
	return int(ms)
}

func (l *epollLoop) firePeriodicIfDue() {
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
