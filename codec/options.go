// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

// Options configures a Packer/Unpacker pair, following the functional-
// options pattern used across this codebase's Options/Option types.
type Options struct {
	// ReadLimit caps the maximum buffered message size an Unpacker will
	// accept before returning a ProtocolError. Zero means no limit.
	ReadLimit int
}

var defaultOptions = Options{ReadLimit: 0}

// Option mutates Options during NewPacker/NewUnpacker construction.
type Option func(*Options)

// WithReadLimit bounds the largest message an Unpacker will buffer.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

func applyOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
