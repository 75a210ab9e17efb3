// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package loop is the reactor the transport and session layers drive.
//
// Implementations attach raw socket file descriptors for readability,
// writability, and error notification, and schedule a single repeating
// callback. Handlers are level-triggered: they fire whenever the
// corresponding condition is true at least once after attachment, and an
// error never auto-detaches a socket — the caller decides what to do next.
//
// Re-attaching an fd already registered replaces its prior registration;
// this is relied upon by transport.Socket switching between
// read-only and read+write interest as its send queue fills and drains.
//
// Start blocks the calling goroutine until Stop is called, and a later
// Start resumes processing pending work — Stop only unwinds the current
// Start call, it does not tear the reactor down.
package loop

import "time"

// Loop is the reactor interface every backend in this package, and any
// third-party replacement passed via msgpackrpc.WithLoop, must satisfy.
type Loop interface {
	// AttachSocket registers fd for the given conditions. A nil callback
	// means "not interested in this condition". Replaces any prior
	// registration for fd.
	AttachSocket(fd int, onReadable, onWritable, onError func())

	// DetachSocket deregisters every interest previously attached for fd.
	// Detaching an fd that was never attached is a no-op.
	DetachSocket(fd int)

	// AttachPeriodic installs a repeating callback, replacing any prior
	// one. period is rounded up to the backend's tick granularity.
	AttachPeriodic(fn func(), period time.Duration)

	// DetachPeriodic cancels the periodic callback, if any.
	DetachPeriodic()

	// Start runs until Stop is called. It must be safe to call Start again
	// after a Stop returns it, resuming where it left off.
	Start()

	// Stop requests the running Start call to return. It is safe to call
	// from inside a handler running on the loop goroutine, and safe to
	// call when Start is not currently running (it is then a no-op until
	// the next Start).
	Stop()
}
