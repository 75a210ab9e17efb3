// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/msgpackrpc/codec"
	"code.hybscloud.com/msgpackrpc/loop"
	"code.hybscloud.com/msgpackrpc/rpcerr"
	"code.hybscloud.com/msgpackrpc/session"
)

// fakeTransport is an in-process transport.Transport: SendMessage records
// every message it was handed and signals sentCh so a test can deliver a
// scripted Response once the request has actually gone out, decoupling
// Session's loop-pumping logic from any real socket or goroutine.
type fakeTransport struct {
	mu     sync.Mutex
	sent   []codec.Message
	sentCh chan codec.Message
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sentCh: make(chan codec.Message, 8)}
}

func (f *fakeTransport) SendMessage(msg codec.Message, callback func()) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	f.sentCh <- msg
	if callback != nil {
		callback()
	}
	return nil
}

func (f *fakeTransport) lenSent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestSession_CallResolvesOnResponse(t *testing.T) {
	t.Parallel()

	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	ft := newFakeTransport()
	sess := session.NewSession(ft, l, 0, nil)

	done := make(chan struct{})
	var result interface{}
	var callErr error
	go func() {
		result, callErr = sess.Call("add", []interface{}{1, 2})
		close(done)
	}()

	// Wait for the request to actually reach the fake transport, then
	// deliver its Response from this goroutine, as a real socket's
	// readability callback would from the loop goroutine.
	var req codec.Request
	select {
	case msg := <-ft.sentCh:
		req = msg.(codec.Request)
	case <-time.After(2 * time.Second):
		t.Fatalf("request never reached the transport")
	}
	sess.OnResponse(req.MsgID, nil, int64(3))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Call did not return")
	}

	if callErr != nil {
		t.Fatalf("Call err = %v", callErr)
	}
	if result != int64(3) {
		t.Fatalf("Call result = %v, want 3", result)
	}
}

func TestSession_CallResolvesOnRemoteError(t *testing.T) {
	t.Parallel()

	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	ft := newFakeTransport()
	sess := session.NewSession(ft, l, 0, nil)

	done := make(chan struct{})
	var callErr error
	go func() {
		_, callErr = sess.Call("div", []interface{}{1, 0})
		close(done)
	}()

	var req codec.Request
	select {
	case msg := <-ft.sentCh:
		req = msg.(codec.Request)
	case <-time.After(2 * time.Second):
		t.Fatalf("request never reached the transport")
	}
	sess.OnResponse(req.MsgID, "division by zero", nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Call did not return")
	}

	if !errors.Is(callErr, rpcerr.ErrRemote) {
		t.Fatalf("Call err = %v, want ErrRemote", callErr)
	}
}

func TestSession_NotifyCarriesNoMsgID(t *testing.T) {
	t.Parallel()

	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	ft := newFakeTransport()
	sess := session.NewSession(ft, l, 0, nil)

	if err := sess.Notify("log", []interface{}{"hi"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if ft.lenSent() != 1 {
		t.Fatalf("len(sent) = %d, want 1", ft.lenSent())
	}
	if _, ok := ft.sent[0].(codec.Notify); !ok {
		t.Fatalf("sent message = %#v, want codec.Notify", ft.sent[0])
	}
}

func TestSession_Close_FailsOutstandingFutures(t *testing.T) {
	t.Parallel()

	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	ft := newFakeTransport()
	sess := session.NewSession(ft, l, 0, nil)

	f, err := sess.CallAsync("slow", nil)
	if err != nil {
		t.Fatalf("CallAsync: %v", err)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ft.closed {
		t.Fatalf("underlying transport was not closed")
	}
	if _, err := f.Get(); !errors.Is(err, rpcerr.ErrTransport) {
		t.Fatalf("Get() err = %v, want ErrTransport", err)
	}
}
