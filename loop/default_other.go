// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package loop

// New returns the default reactor for the running GOOS: the portable
// poll(2) backend everywhere epoll is unavailable.
func New() (Loop, error) { return NewPoll(), nil }
