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

// Package patch encodes the instruction sequences written into the hook slots
// reserved in the syscall entry and exit stubs.
//
// Each stub reserves a fixed number of bytes (filled with no-ops when tracing
// is disabled). A hook turns the slot into "load the handler address into a
// scratch register, then call or jump through it". The encoding is exactly
// HookSize bytes long; bytes after the slot belong to the stub and are never
// written.
package patch

import (
	"encoding/binary"
	"fmt"
)

// Arch is an instruction set that hooks can be encoded for.
type Arch int

// Supported instruction sets.
const (
	AMD64 Arch = iota
	I386
	ARM64
)

// String implements fmt.Stringer.
func (a Arch) String() string {
	switch a {
	case AMD64:
		return "amd64"
	case I386:
		return "386"
	case ARM64:
		return "arm64"
	default:
		return fmt.Sprintf("Arch(%d)", int(a))
	}
}

// ParseArch returns the Arch named by s, using GOARCH spelling.
func ParseArch(s string) (Arch, error) {
	for _, a := range []Arch{AMD64, I386, ARM64} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unsupported architecture %q", s)
}

// Sizes of the reserved slots, per instruction set.
const (
	// movabs $fn, %r10; call *%r10
	amd64HookSize = 2 + 8 + 3
	// mov $fn, %ecx; call *%ecx
	i386HookSize = 1 + 4 + 2
	// movk x9 (x4); blr x9
	arm64HookSize = 5 * 4
)

// HookSize returns the number of bytes a hook occupies on a.
func HookSize(a Arch) int {
	switch a {
	case AMD64:
		return amd64HookSize
	case I386:
		return i386HookSize
	case ARM64:
		return arm64HookSize
	default:
		panic(fmt.Sprintf("unknown arch %v", a))
	}
}

const (
	// arm64Scratch is x9, a caller-saved temporary in AAPCS64.
	arm64Scratch = 9

	arm64Movk = 0b111100101 << 23
	arm64Blr  = 0b1101011000111111000000 << 10
	arm64Br   = 0b1101011000011111000000 << 10
)

func arm64MovkInst(reg uint32, imm uint16, hw uint32) uint32 {
	return arm64Movk | (hw&0x3)<<21 | uint32(imm)<<5 | reg&0x1f
}

func arm64BranchInst(reg uint32, jump bool) uint32 {
	if jump {
		return arm64Br | (reg&0x1f)<<5
	}
	return arm64Blr | (reg&0x1f)<<5
}

// Encode returns the hook bytes for a on the handler at fn. When jump is set,
// the hook tail-jumps to fn instead of calling it, so control does not return
// to the instruction after the slot.
//
// On I386 only the low 32 bits of fn are encoded.
func Encode(a Arch, fn uint64, jump bool) []byte {
	b := make([]byte, HookSize(a))
	switch a {
	case AMD64:
		// movabs $fn, %r10
		b[0], b[1] = 0x49, 0xba
		binary.LittleEndian.PutUint64(b[2:10], fn)
		// call *%r10 / jmp *%r10
		b[10], b[11] = 0x41, 0xff
		if jump {
			b[12] = 0xe2
		} else {
			b[12] = 0xd2
		}
	case I386:
		// mov $fn, %ecx
		b[0] = 0xb9
		binary.LittleEndian.PutUint32(b[1:5], uint32(fn))
		// call *%ecx / jmp *%ecx
		b[5] = 0xff
		if jump {
			b[6] = 0xe1
		} else {
			b[6] = 0xd1
		}
	case ARM64:
		for i := 0; i < 4; i++ {
			inst := arm64MovkInst(arm64Scratch, uint16(fn>>(16*i)), uint32(i))
			binary.LittleEndian.PutUint32(b[4*i:], inst)
		}
		binary.LittleEndian.PutUint32(b[16:], arm64BranchInst(arm64Scratch, jump))
	}
	return b
}

// Decode is the inverse of Encode. It returns an error if b is not a hook
// produced by Encode for a.
func Decode(a Arch, b []byte) (fn uint64, jump bool, err error) {
	if len(b) < HookSize(a) {
		return 0, false, fmt.Errorf("hook for %v needs %d bytes, got %d", a, HookSize(a), len(b))
	}
	switch a {
	case AMD64:
		if b[0] != 0x49 || b[1] != 0xba || b[10] != 0x41 || b[11] != 0xff {
			return 0, false, fmt.Errorf("not an amd64 hook: % x", b[:amd64HookSize])
		}
		switch b[12] {
		case 0xd2:
		case 0xe2:
			jump = true
		default:
			return 0, false, fmt.Errorf("unexpected amd64 branch modrm %#x", b[12])
		}
		return binary.LittleEndian.Uint64(b[2:10]), jump, nil
	case I386:
		if b[0] != 0xb9 || b[5] != 0xff {
			return 0, false, fmt.Errorf("not a 386 hook: % x", b[:i386HookSize])
		}
		switch b[6] {
		case 0xd1:
		case 0xe1:
			jump = true
		default:
			return 0, false, fmt.Errorf("unexpected 386 branch modrm %#x", b[6])
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), jump, nil
	case ARM64:
		for i := 0; i < 4; i++ {
			inst := binary.LittleEndian.Uint32(b[4*i:])
			if inst&^(0xffff<<5) != arm64MovkInst(arm64Scratch, 0, uint32(i)) {
				return 0, false, fmt.Errorf("instruction %d (%#08x) is not movk x%d, lsl #%d", i, inst, arm64Scratch, 16*i)
			}
			fn |= uint64((inst>>5)&0xffff) << (16 * i)
		}
		switch inst := binary.LittleEndian.Uint32(b[16:]); inst {
		case arm64BranchInst(arm64Scratch, false):
		case arm64BranchInst(arm64Scratch, true):
			jump = true
		default:
			return 0, false, fmt.Errorf("instruction 4 (%#08x) is not blr/br x%d", inst, arm64Scratch)
		}
		return fn, jump, nil
	default:
		return 0, false, fmt.Errorf("unknown arch %v", a)
	}
}

// Size is the size of a hook slot on the build target.
var Size = HookSize(Native)

// Write encodes a hook for the build target into dst. dst must be at least
// Size bytes long; only the first Size bytes are written.
func Write(dst []byte, fn uintptr, jump bool) {
	if len(dst) < Size {
		panic(fmt.Sprintf("hook slot too small: %d < %d", len(dst), Size))
	}
	copy(dst[:Size], Encode(Native, uint64(fn), jump))
}
