// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package threadlocal provides storage scoped to a kernel thread.
//
// Values are keyed by the kernel thread id, not by goroutine: the tracer runs
// on threads owned by the traced program, and a thread's storage lives until
// the program tells us the thread is exiting.
package threadlocal

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Key identifies a value in every thread's storage.
type Key struct {
	index int
	name  string

	// destroy releases a value. It is called with the owning thread at
	// thread exit, and by Release.
	destroy func(th *Thread, v any)
}

// String implements fmt.Stringer.
func (k *Key) String() string {
	return k.name
}

// Thread is the storage of one thread. It must only be used by the thread it
// belongs to, except during Registry.Exit and Registry.AfterFork.
type Thread struct {
	// TID is the kernel thread id.
	TID int

	values []any
}

// Value returns the value stored for k, or nil.
func (th *Thread) Value(k *Key) any {
	if k.index >= len(th.values) {
		return nil
	}
	return th.values[k.index]
}

// SetValue stores v for k. The previous value is dropped without being
// destroyed.
func (th *Thread) SetValue(k *Key, v any) {
	if k.index >= len(th.values) {
		grown := make([]any, k.index+1)
		copy(grown, th.values)
		th.values = grown
	}
	th.values[k.index] = v
}

// Release destroys the value stored for k, if any, and clears it.
func (th *Thread) Release(k *Key) {
	v := th.Value(k)
	if v == nil {
		return
	}
	th.SetValue(k, nil)
	if k.destroy != nil {
		k.destroy(th, v)
	}
}

// Registry holds the storage of every thread that has used it.
type Registry struct {
	// mu protects keys. Keys are normally registered during setup, before
	// any thread looks up its storage.
	mu   sync.Mutex
	keys []*Key

	// threads maps a tid to its *Thread.
	threads sync.Map
}

// NewKey registers a key. destroy, if not nil, is called for non-nil values
// when their thread exits.
func (r *Registry) NewKey(name string, destroy func(th *Thread, v any)) *Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := &Key{
		index:   len(r.keys),
		name:    name,
		destroy: destroy,
	}
	r.keys = append(r.keys, k)
	return k
}

// Get returns the storage of thread tid, creating it on first use.
func (r *Registry) Get(tid int) *Thread {
	if th, ok := r.threads.Load(tid); ok {
		return th.(*Thread)
	}
	th, _ := r.threads.LoadOrStore(tid, &Thread{TID: tid})
	return th.(*Thread)
}

// Current returns the storage of the calling thread. The caller must be
// locked to its OS thread for the result to stay meaningful.
func (r *Registry) Current() *Thread {
	return r.Get(unix.Gettid())
}

// Lookup returns the storage of thread tid if it exists.
func (r *Registry) Lookup(tid int) (*Thread, bool) {
	th, ok := r.threads.Load(tid)
	if !ok {
		return nil, false
	}
	return th.(*Thread), true
}

// Len returns the number of threads with storage.
func (r *Registry) Len() int {
	n := 0
	r.threads.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Exit runs the destructors of thread tid, in reverse key registration order,
// and forgets the thread. Exiting an unknown thread is a no-op.
func (r *Registry) Exit(tid int) {
	th, ok := r.threads.LoadAndDelete(tid)
	if !ok {
		return
	}
	r.destroy(th.(*Thread))
}

func (r *Registry) destroy(th *Thread) {
	r.mu.Lock()
	keys := append([]*Key(nil), r.keys...)
	r.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		th.Release(keys[i])
	}
}

// AfterFork adjusts the registry in a child process. Only the forking thread
// survives fork(2), and the kernel gives it a new id: its storage, recorded
// under parentTID, is moved to childTID. The storage of every other thread is
// destroyed. The surviving storage is returned.
func (r *Registry) AfterFork(parentTID, childTID int) *Thread {
	var survivor *Thread
	r.threads.Range(func(key, value any) bool {
		tid := key.(int)
		th := value.(*Thread)
		if tid == parentTID {
			survivor = th
			return true
		}
		r.threads.Delete(tid)
		r.destroy(th)
		return true
	})
	if survivor == nil {
		return r.Get(childTID)
	}
	if parentTID != childTID {
		r.threads.Delete(parentTID)
		survivor.TID = childTID
		r.threads.Store(childTID, survivor)
	}
	return survivor
}

// String implements fmt.Stringer.
func (th *Thread) String() string {
	return fmt.Sprintf("thread %d", th.TID)
}
