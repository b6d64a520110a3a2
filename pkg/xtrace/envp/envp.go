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

// Package envp edits the environment block handed to execve(2).
//
// A Block is an ordered mapping from key to value. Setting a key that already
// exists overwrites it in place; setting a new key appends it. Entries that
// are never touched are preserved byte for byte, in their original order.
package envp

import "strings"

type entry struct {
	key   string
	value string

	// raw is the original entry when isRaw is set, that is when it has no
	// '='. Such entries cannot be looked up and are passed through
	// unchanged.
	raw   string
	isRaw bool
}

func (e entry) String() string {
	if e.isRaw {
		return e.raw
	}
	return e.key + "=" + e.value
}

// Block is an environment block.
type Block struct {
	entries []entry

	// index maps a key to the position of its first entry.
	index map[string]int
}

// Parse builds a Block from "KEY=VALUE" strings. A nil env yields an empty
// block.
func Parse(env []string) *Block {
	b := &Block{
		entries: make([]entry, 0, len(env)),
		index:   make(map[string]int, len(env)),
	}
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			b.entries = append(b.entries, entry{raw: kv, isRaw: true})
			continue
		}
		if _, dup := b.index[key]; !dup {
			b.index[key] = len(b.entries)
		}
		b.entries = append(b.entries, entry{key: key, value: value})
	}
	return b
}

// Len returns the number of entries.
func (b *Block) Len() int {
	return len(b.entries)
}

// Get returns the value of key.
func (b *Block) Get(key string) (string, bool) {
	i, ok := b.index[key]
	if !ok {
		return "", false
	}
	return b.entries[i].value, true
}

// Set sets key to value, overwriting the first existing entry for key or
// appending a new one.
func (b *Block) Set(key, value string) {
	if i, ok := b.index[key]; ok {
		b.entries[i].value = value
		return
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, entry{key: key, value: value})
}

// AppendList appends item to the sep-separated list stored in key. Existing
// items are kept as they are; an unset or empty list becomes just item.
func (b *Block) AppendList(key, sep, item string) {
	old, _ := b.Get(key)
	if old == "" {
		b.Set(key, item)
		return
	}
	b.Set(key, old+sep+item)
}

// Environ returns the block as "KEY=VALUE" strings, suitable for execve(2).
func (b *Block) Environ() []string {
	env := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		env = append(env, e.String())
	}
	return env
}
