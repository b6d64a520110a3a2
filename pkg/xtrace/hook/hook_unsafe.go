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

package hook

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/hostarch"
	"gvisor.dev/xtrace/pkg/xtrace/patch"
)

// slotBytes returns the memory of a hook slot.
func slotBytes(s Slot) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(s))), patch.Size)
}

func mprotect(ar hostarch.AddrRange, prot int) error {
	return unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ar.Start))), ar.Length()), prot)
}
