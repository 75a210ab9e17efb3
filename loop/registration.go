// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

// socketReg holds one fd's registered callbacks, shared by every backend in
// this package.
type socketReg struct {
	onReadable, onWritable, onError func()
}
