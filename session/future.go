// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

import "code.hybscloud.com/msgpackrpc/rpcerr"

// FutureState is the lifecycle of a Future, per spec.md §4.6.
type FutureState int

const (
	FuturePending FutureState = iota
	FutureResolved
	FutureFailed
)

// Future holds the outcome of one in-flight request. It is resolved by the
// Session's response dispatch when a matching Response arrives, or failed
// by the session's timeout tick or by a transport failure.
//
// Future is not safe for concurrent use from outside the reactor goroutine.
// Get never blocks; Session.Wait is what pumps the owning Session's loop
// until the Future settles, and it does not synchronize with another thread.
type Future struct {
	state FutureState

	result interface{}
	err    error

	// stepsLeft counts down on each timeout tick; zero means no deadline.
	stepsLeft int

	onSettled func()
}

func newFuture(timeoutSteps int) *Future {
	return &Future{state: FuturePending, stepsLeft: timeoutSteps}
}

// State reports the current lifecycle state.
func (f *Future) State() FutureState { return f.state }

// SetResult resolves a pending Future with an ordinary RPC result. Calling
// it on an already-settled Future is a no-op.
func (f *Future) SetResult(v interface{}) {
	if f.state != FuturePending {
		return
	}
	f.state = FutureResolved
	f.result = v
	f.settle()
}

// SetError fails a pending Future, wrapping err as the RemoteError value an
// ordinary Go caller can inspect with rpcerr.RemoteValue.
func (f *Future) SetError(errVal interface{}) {
	if f.state != FuturePending {
		return
	}
	f.state = FutureFailed
	f.err = rpcerr.Remote(errVal)
	f.settle()
}

// fail is used for transport/timeout failures, where err is already a
// concrete Go error rather than a peer-supplied value.
func (f *Future) fail(err error) {
	if f.state != FuturePending {
		return
	}
	f.state = FutureFailed
	f.err = err
	f.settle()
}

func (f *Future) settle() {
	if f.onSettled != nil {
		f.onSettled()
	}
}

// stepTimeout decrements the remaining deadline by one tick, failing the
// Future with a TimeoutError once it reaches zero. Futures with no
// deadline (stepsLeft == 0 at construction) are never touched.
func (f *Future) stepTimeout() {
	if f.state != FuturePending || f.stepsLeft <= 0 {
		return
	}
	f.stepsLeft--
	if f.stepsLeft == 0 {
		f.fail(rpcerr.Timeout("request timed out"))
	}
}

// Get returns the settled result or error. Callers must only invoke Get
// after State() is no longer FuturePending — Session.Call and
// Session.Wait guarantee this by pumping the loop until settlement.
func (f *Future) Get() (interface{}, error) {
	if f.state == FutureFailed {
		return nil, f.err
	}
	return f.result, nil
}
