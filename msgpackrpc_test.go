// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpackrpc_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/msgpackrpc"
	"code.hybscloud.com/msgpackrpc/rpcerr"
)

func addDispatcher() msgpackrpc.DispatcherFunc {
	return func(method string, params []interface{}, r *msgpackrpc.Responder) {
		switch method {
		case "add":
			a, _ := params[0].(int64)
			b, _ := params[1].(int64)
			r.Result(a + b)
		case "boom":
			r.Error("boom: always fails")
		case "deferred":
			// Takes an AsyncResult and resolves it through that handle
			// before Dispatch returns, still on the loop goroutine,
			// exercising the AsyncResult path without crossing goroutines
			// (Socket/Responder are loop-owned state).
			async := r.Async()
			async.SetResult("later")
		default:
			r.Error("no such method: " + method)
		}
	}
}

func TestClientServer_Call_RoundTrip(t *testing.T) {
	t.Parallel()

	addr := msgpackrpc.Address{Host: "127.0.0.1", Port: 18910}
	srv, err := msgpackrpc.NewServer(addr, msgpackrpc.WithDispatcher(addDispatcher()))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	defer srv.Close()

	client, err := msgpackrpc.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	result, err := client.Call("add", int64(2), int64(3))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != int64(5) {
		t.Fatalf("Call result = %v, want 5", result)
	}
}

func TestClientServer_Call_RemoteError(t *testing.T) {
	t.Parallel()

	addr := msgpackrpc.Address{Host: "127.0.0.1", Port: 18911}
	srv, err := msgpackrpc.NewServer(addr, msgpackrpc.WithDispatcher(addDispatcher()))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	defer srv.Close()

	client, err := msgpackrpc.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	_, err = client.Call("boom")
	if !errors.Is(err, rpcerr.ErrRemote) {
		t.Fatalf("Call err = %v, want ErrRemote", err)
	}
}

func TestClientServer_Call_NoSuchMethod(t *testing.T) {
	t.Parallel()

	addr := msgpackrpc.Address{Host: "127.0.0.1", Port: 18912}
	srv, err := msgpackrpc.NewServer(addr, msgpackrpc.WithDispatcher(addDispatcher()))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	defer srv.Close()

	client, err := msgpackrpc.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	_, err = client.Call("missing")
	if !errors.Is(err, rpcerr.ErrRemote) {
		t.Fatalf("Call err = %v, want ErrRemote", err)
	}
}

func TestClientServer_CallAsync_DeferredResult(t *testing.T) {
	t.Parallel()

	addr := msgpackrpc.Address{Host: "127.0.0.1", Port: 18913}
	srv, err := msgpackrpc.NewServer(addr, msgpackrpc.WithDispatcher(addDispatcher()))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	defer srv.Close()

	client, err := msgpackrpc.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	f, err := client.CallAsync("deferred")
	if err != nil {
		t.Fatalf("CallAsync: %v", err)
	}
	result, err := client.Wait(f)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result != "later" {
		t.Fatalf("Call result = %v, want later", result)
	}
}

func TestClientServer_Notify_NoResponse(t *testing.T) {
	t.Parallel()

	addr := msgpackrpc.Address{Host: "127.0.0.1", Port: 18914}
	seen := make(chan string, 1)
	dispatcher := msgpackrpc.DispatcherFunc(func(method string, params []interface{}, r *msgpackrpc.Responder) {
		seen <- method
	})
	srv, err := msgpackrpc.NewServer(addr, msgpackrpc.WithDispatcher(dispatcher))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	defer srv.Close()

	client, err := msgpackrpc.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	// Notify pumps the Client's loop itself until the message is flushed,
	// so no separate goroutine is needed to drive the connect and write.
	if err := client.Notify("fire", "payload"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case method := <-seen:
		if method != "fire" {
			t.Fatalf("dispatched method = %q, want fire", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never observed the notify")
	}
}
