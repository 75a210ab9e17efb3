// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpackrpc

import "code.hybscloud.com/msgpackrpc/loop"

// Options configures a Client or Server. Use the With* functions to build
// one; the zero value is never constructed by callers directly.
type Options struct {
	Loop loop.Loop

	// ReconnectLimit caps how many consecutive failed connect attempts a
	// Client makes before giving up and reporting a TransportError. Zero
	// means retry forever.
	ReconnectLimit uint32

	// TimeoutSteps is how many one-second ticks an in-flight Call survives
	// with no Response before it fails with a TimeoutError. Zero disables
	// the deadline.
	TimeoutSteps int

	Dispatcher Dispatcher
}

var defaultOptions = Options{
	ReconnectLimit: 0,
	TimeoutSteps:   0,
}

// Option configures Options; see the With* functions.
type Option func(*Options)

// WithLoop sets the loop.Loop a Client or Server runs on. Passing the same
// Loop to several Clients/Servers multiplexes them onto one reactor; the
// default is a fresh loop.New() per Client/Server.
func WithLoop(l loop.Loop) Option {
	return func(o *Options) { o.Loop = l }
}

// WithReconnectLimit caps consecutive failed connect attempts on a Client.
func WithReconnectLimit(limit uint32) Option {
	return func(o *Options) { o.ReconnectLimit = limit }
}

// WithTimeout sets how many one-second ticks a Call waits for a Response.
func WithTimeout(steps int) Option {
	return func(o *Options) { o.TimeoutSteps = steps }
}

// WithDispatcher sets the Dispatcher used for inbound Requests/Notifies
// received on the same connection (a Client answering a callback from the
// server it called, or a Server answering its clients).
func WithDispatcher(d Dispatcher) Option {
	return func(o *Options) { o.Dispatcher = d }
}

func applyOptions(opts []Option) (Options, error) {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.Loop == nil {
		l, err := loop.New()
		if err != nil {
			return o, err
		}
		o.Loop = l
	}
	return o, nil
}
