// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"io"

	"code.hybscloud.com/iox"
	"github.com/vmihailenco/msgpack/v5"

	"code.hybscloud.com/msgpackrpc/rpcerr"
)

// Packer serializes Messages into MessagePack-encoded bytes. A Packer is not
// safe for concurrent use; a transport.Socket owns exactly one.
type Packer struct{}

// NewPacker returns a Packer. Strings are always packed as UTF-8, matching
// the reference implementation's default pack_encoding='utf-8'.
func NewPacker(opts ...Option) *Packer {
	_ = applyOptions(opts)
	return &Packer{}
}

// Pack encodes msg as a MessagePack array. User-defined values inside
// Params/Result/Error are packed by invoking their own MarshalMsgpack hook
// (the "to_msgpack()" hook of spec.md §4.2); a value with no msgpack
// representation makes Pack return an EncodingError.
func (p *Packer) Pack(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	var err error
	switch m := msg.(type) {
	case Request:
		err = enc.Encode([]interface{}{TagRequest, m.MsgID, m.Method, m.Params})
	case Response:
		err = enc.Encode([]interface{}{TagResponse, m.MsgID, m.Error, m.Result})
	case Notify:
		err = enc.Encode([]interface{}{TagNotify, m.Method, m.Params})
	default:
		return nil, rpcerr.Encoding(errUnknownMessage)
	}
	if err != nil {
		return nil, rpcerr.Encoding(err)
	}
	return buf.Bytes(), nil
}

// Unpacker is a streaming feeder: Feed appends bytes read off the wire, and
// Next drains zero or more fully-received Messages. Any partial tail is
// retained internally for the next Feed, mirroring msgpack.Unpacker's
// feed()/iteration idiom in the reference implementation.
type Unpacker struct {
	buf       []byte
	readLimit int
}

// NewUnpacker returns an Unpacker. WithReadLimit bounds the largest message
// it will accept before returning a ProtocolError instead of buffering
// indefinitely.
func NewUnpacker(opts ...Option) *Unpacker {
	o := applyOptions(opts)
	return &Unpacker{readLimit: o.ReadLimit}
}

// Feed appends newly read bytes to the internal buffer. It does not decode;
// call Next in a loop afterwards to drain any complete messages.
func (u *Unpacker) Feed(b []byte) {
	u.buf = append(u.buf, b...)
}

// Next attempts to decode one complete Message from the buffered bytes.
// It returns (nil, iox.ErrMore) when the buffer holds an incomplete tail —
// the caller should stop iterating and wait for the next Feed. A malformed
// frame (wrong tag, wrong arity) returns a ProtocolError and the caller
// must close the connection; Next must not be called again afterwards.
func (u *Unpacker) Next() (Message, error) {
	if len(u.buf) == 0 {
		return nil, iox.ErrMore
	}
	if u.readLimit > 0 && len(u.buf) > u.readLimit {
		return nil, rpcerr.Protocol("message exceeds read limit of %d bytes", u.readLimit)
	}

	r := bytes.NewReader(u.buf)
	dec := msgpack.NewDecoder(r)

	var raw []interface{}
	err := dec.Decode(&raw)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, iox.ErrMore
		}
		return nil, rpcerr.Protocol("decoding message: %v", err)
	}

	consumed := len(u.buf) - r.Len()
	u.buf = u.buf[consumed:]

	return toMessage(raw)
}

func toMessage(raw []interface{}) (Message, error) {
	if len(raw) != 3 && len(raw) != 4 {
		return nil, rpcerr.Protocol("invalid MessagePack-RPC protocol: message = %v", raw)
	}

	tag, ok := asInt(raw[0])
	if !ok {
		return nil, rpcerr.Protocol("invalid message tag: %v", raw[0])
	}

	switch tag {
	case TagRequest:
		if len(raw) != 4 {
			return nil, rpcerr.Protocol("invalid request arity: %v", raw)
		}
		msgid, ok := asUint32(raw[1])
		if !ok {
			return nil, rpcerr.Protocol("invalid request msgid: %v", raw[1])
		}
		method, ok := asMethodString(raw[2])
		if !ok {
			return nil, rpcerr.Protocol("invalid request method: %v", raw[2])
		}
		params, ok := asParams(raw[3])
		if !ok {
			return nil, rpcerr.Protocol("invalid request params: %v", raw[3])
		}
		return Request{MsgID: msgid, Method: method, Params: params}, nil

	case TagResponse:
		if len(raw) != 4 {
			return nil, rpcerr.Protocol("invalid response arity: %v", raw)
		}
		msgid, ok := asUint32(raw[1])
		if !ok {
			return nil, rpcerr.Protocol("invalid response msgid: %v", raw[1])
		}
		return Response{MsgID: msgid, Error: raw[2], Result: raw[3]}, nil

	case TagNotify:
		if len(raw) != 3 {
			return nil, rpcerr.Protocol("invalid notify arity: %v", raw)
		}
		method, ok := asMethodString(raw[1])
		if !ok {
			return nil, rpcerr.Protocol("invalid notify method: %v", raw[1])
		}
		params, ok := asParams(raw[2])
		if !ok {
			return nil, rpcerr.Protocol("invalid notify params: %v", raw[2])
		}
		return Notify{Method: method, Params: params}, nil

	default:
		return nil, rpcerr.Protocol("unknown message type: type = %v", tag)
	}
}
