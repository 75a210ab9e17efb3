// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import "errors"

var errUnknownMessage = errors.New("codec: unknown message type")

// asInt narrows the decoded tag value (an int8/int64/uint64 depending on how
// small it was encoded) down to a plain int for the tag switch.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

func asUint32(v interface{}) (uint32, bool) {
	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, false
	}
	return uint32(n), true
}

// asMethodString normalises the decoded method name to text. The wire form
// may arrive as either str or bin depending on the peer's pack encoding
// (spec.md §6); dispatch always wants a normalised string (spec.md §4.6),
// so unlike Params/Result, method names are never left as raw bytes.
func asMethodString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

func asParams(v interface{}) ([]interface{}, bool) {
	switch p := v.(type) {
	case []interface{}:
		return p, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
