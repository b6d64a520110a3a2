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

package patch

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		name string
		arch Arch
		fn   uint64
		jump bool
		want []byte
	}{
		{
			name: "amd64 call",
			arch: AMD64,
			fn:   0x0011223344556677,
			want: []byte{0x49, 0xba, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0x00, 0x41, 0xff, 0xd2},
		},
		{
			name: "amd64 jump",
			arch: AMD64,
			fn:   0x7f0000001000,
			jump: true,
			want: []byte{0x49, 0xba, 0x00, 0x10, 0x00, 0x00, 0x00, 0x7f, 0x00, 0x00, 0x41, 0xff, 0xe2},
		},
		{
			name: "386 call",
			arch: I386,
			fn:   0x08049000,
			want: []byte{0xb9, 0x00, 0x90, 0x04, 0x08, 0xff, 0xd1},
		},
		{
			name: "386 jump",
			arch: I386,
			fn:   0x08049000,
			jump: true,
			want: []byte{0xb9, 0x00, 0x90, 0x04, 0x08, 0xff, 0xe1},
		},
		{
			name: "arm64 call",
			arch: ARM64,
			fn:   0x0000ffff12345678,
			want: []byte{
				0x09, 0xcf, 0x8a, 0xf2, // movk x9, #0x5678
				0x89, 0x46, 0xa2, 0xf2, // movk x9, #0x1234, lsl #16
				0xe9, 0xff, 0xdf, 0xf2, // movk x9, #0xffff, lsl #32
				0x09, 0x00, 0xe0, 0xf2, // movk x9, #0x0, lsl #48
				0x20, 0x01, 0x3f, 0xd6, // blr x9
			},
		},
		{
			name: "arm64 jump",
			arch: ARM64,
			fn:   0,
			jump: true,
			want: []byte{
				0x09, 0x00, 0x80, 0xf2,
				0x09, 0x00, 0xa0, 0xf2,
				0x09, 0x00, 0xc0, 0xf2,
				0x09, 0x00, 0xe0, 0xf2,
				0x20, 0x01, 0x1f, 0xd6, // br x9
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Encode(tc.arch, tc.fn, tc.jump)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Encode mismatch (-want +got):\n%s", diff)
			}
			if len(got) != HookSize(tc.arch) {
				t.Errorf("len = %d, want HookSize %d", len(got), HookSize(tc.arch))
			}
		})
	}
}

func TestHookSize(t *testing.T) {
	// The reserved slots in the stubs are 13 bytes on amd64.
	if got := HookSize(AMD64); got != 13 {
		t.Errorf("HookSize(AMD64) = %d, want 13", got)
	}
	if got := HookSize(I386); got != 7 {
		t.Errorf("HookSize(I386) = %d, want 7", got)
	}
	if got := HookSize(ARM64); got != 20 {
		t.Errorf("HookSize(ARM64) = %d, want 20", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, arch := range []Arch{AMD64, I386, ARM64} {
		for _, fn := range []uint64{0, 1, 0xdeadbeef, 0x00007fffdeadbeef, ^uint64(0)} {
			for _, jump := range []bool{false, true} {
				want := fn
				if arch == I386 {
					want = uint64(uint32(fn))
				}
				gotFn, gotJump, err := Decode(arch, Encode(arch, fn, jump))
				if err != nil {
					t.Errorf("Decode(%v, Encode(%#x, %v)): %v", arch, fn, jump, err)
					continue
				}
				if gotFn != want || gotJump != jump {
					t.Errorf("Decode(%v, Encode(%#x, %v)) = %#x, %v", arch, fn, jump, gotFn, gotJump)
				}
			}
		}
	}
}

func TestDecodeRejectsNops(t *testing.T) {
	for _, arch := range []Arch{AMD64, I386, ARM64} {
		nops := bytes.Repeat([]byte{0x90}, HookSize(arch))
		if _, _, err := Decode(arch, nops); err == nil {
			t.Errorf("Decode(%v, nops) succeeded", arch)
		}
		if _, _, err := Decode(arch, nops[:1]); err == nil {
			t.Errorf("Decode(%v, short) succeeded", arch)
		}
	}
}

func TestWriteStaysInSlot(t *testing.T) {
	const guard = 0xcc
	buf := bytes.Repeat([]byte{guard}, Size+8)
	Write(buf[4:], 0x1234, false)

	for i, b := range buf[:4] {
		if b != guard {
			t.Errorf("byte %d before slot clobbered: %#x", i, b)
		}
	}
	for i, b := range buf[4+Size:] {
		if b != guard {
			t.Errorf("byte %d after slot clobbered: %#x", i, b)
		}
	}
	fn, jump, err := Decode(Native, buf[4:4+Size])
	if err != nil || fn != 0x1234 || jump {
		t.Errorf("Decode = %#x, %v, %v; want 0x1234, false, nil", fn, jump, err)
	}
}

func TestWriteShortSlotPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Write into a short slot did not panic")
		}
	}()
	Write(make([]byte, Size-1), 0x1234, true)
}

func TestParseArch(t *testing.T) {
	for _, a := range []Arch{AMD64, I386, ARM64} {
		got, err := ParseArch(a.String())
		if err != nil || got != a {
			t.Errorf("ParseArch(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseArch("riscv64"); err == nil {
		t.Errorf("ParseArch(riscv64) succeeded")
	}
}
