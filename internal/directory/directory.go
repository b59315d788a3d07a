// Package directory maps an identity to the live connection currently bound to it.
package directory

import "sync"

// Handle is a live connection that push events can be sent over
type Handle interface {
	Send(payload []byte) error
	Close() error
}

// Directory holds at most one Handle per identity. All operations share one
// mutex because connects, disconnects and bid-triggered lookups race freely.
type Directory struct {
	mu       sync.Mutex
	bindings map[string]Handle
}

// New creates an empty directory
func New() *Directory {
	return &Directory{bindings: make(map[string]Handle)}
}

// Bind makes handle the connection for identity, replacing any earlier one.
// The replaced handle is returned so the caller can close it.
func (d *Directory) Bind(identity string, handle Handle) (previous Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous = d.bindings[identity]
	d.bindings[identity] = handle
	if previous == handle {
		return nil
	}
	return previous
}

// Unbind removes the binding for identity if there is one
func (d *Directory) Unbind(identity string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings, identity)
}

// Release removes the binding for identity only while it still points at handle.
// A superseded connection that disconnects late must not evict its replacement.
func (d *Directory) Release(identity string, handle Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if current, ok := d.bindings[identity]; ok && current == handle {
		delete(d.bindings, identity)
		return true
	}
	return false
}

// Lookup returns the handle bound to identity
func (d *Directory) Lookup(identity string) (Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, ok := d.bindings[identity]
	return h, ok
}

// Len returns the number of bound identities
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindings)
}
