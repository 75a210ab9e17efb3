// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package codec packs and unpacks MessagePack-RPC messages: tagged
// MessagePack arrays carrying requests, responses, and notifications.
//
// Wire format (spec):
//
//	Request:      [0, msgid uint32, method string|bytes, params array]
//	Response:     [1, msgid uint32, error any|nil, result any|nil]
//	Notification: [2, method string|bytes, params array]
//
// There is no framing beyond MessagePack itself: each message is one
// self-describing top-level array, so a receiver only needs a streaming
// decoder, not a length prefix.
package codec

const (
	// TagRequest marks a Request message ([0, msgid, method, params]).
	TagRequest = 0
	// TagResponse marks a Response message ([1, msgid, error, result]).
	TagResponse = 1
	// TagNotify marks a Notification message ([2, method, params]).
	TagNotify = 2
)

// Request is a call expecting exactly one matching Response.
type Request struct {
	MsgID  uint32
	Method string
	Params []interface{}
}

// Response answers a Request with the same MsgID. Exactly one of Error,
// Result is non-nil.
type Response struct {
	MsgID  uint32
	Error  interface{}
	Result interface{}
}

// Notify is a fire-and-forget call with no MsgID and no reply.
type Notify struct {
	Method string
	Params []interface{}
}

// Message is the sum type produced by Unpacker.Next and consumed by
// Packer.Pack: exactly one of the three concrete types above, or nil for
// "would-be invalid" results that never escape this package.
type Message interface {
	isMessage()
}

func (Request) isMessage()  {}
func (Response) isMessage() {}
func (Notify) isMessage()   {}
