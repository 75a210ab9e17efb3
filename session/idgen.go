// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

// idLimit is the wraparound point for generated message ids, per spec.md
// §4.6: ids stay below 2^30 and wrap back to zero there.
const idLimit = 1 << 30

// idGenerator produces monotonically increasing message ids that wrap back
// to zero at idLimit. It is not safe for concurrent use; the reactor model
// only ever calls it from the loop goroutine.
type idGenerator struct {
	next uint32
}

func (g *idGenerator) Next() uint32 {
	id := g.next
	g.next++
	if g.next >= idLimit {
		g.next = 0
	}
	return id
}
