// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

// requestTable correlates outstanding request msgids to the Future waiting
// on their Response, per spec.md §4.6.
type requestTable struct {
	entries map[uint32]*Future
}

func newRequestTable() *requestTable {
	return &requestTable{entries: make(map[uint32]*Future)}
}

func (t *requestTable) add(msgid uint32, f *Future) {
	t.entries[msgid] = f
}

func (t *requestTable) pop(msgid uint32) (*Future, bool) {
	f, ok := t.entries[msgid]
	if ok {
		delete(t.entries, msgid)
	}
	return f, ok
}

// tick advances every outstanding Future's timeout by one step, dropping
// any that time out. Called once per timeout period from Session.
func (t *requestTable) tick() {
	for id, f := range t.entries {
		f.stepTimeout()
		if f.state != FuturePending {
			delete(t.entries, id)
		}
	}
}

// failAll fails every outstanding Future with err, used when the
// underlying transport is lost or the Session is closed.
func (t *requestTable) failAll(err error) {
	for id, f := range t.entries {
		f.fail(err)
		delete(t.entries, id)
	}
}
