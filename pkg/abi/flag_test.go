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

package abi

import "testing"

func TestFlagSetParse(t *testing.T) {
	s := FlagSet{
		{Flag: 0x1, Name: "A"},
		{Flag: 0x2, Name: "B"},
		{Flag: 0x6, Name: "BC"},
	}
	for _, tc := range []struct {
		val  uint64
		want string
	}{
		{0, "0x0"},
		{0x1, "A"},
		{0x3, "A|B"},
		{0x7, "A|B|0x4"},
		{0x11, "A|0x10"},
	} {
		if got := s.Parse(tc.val); got != tc.want {
			t.Errorf("Parse(%#x) = %q, want %q", tc.val, got, tc.want)
		}
	}
	if got := s.Mask(); got != 0x7 {
		t.Errorf("Mask() = %#x, want 0x7", got)
	}
}

func TestValueSet(t *testing.T) {
	if got := KernReturn.Parse(0); got != "KERN_SUCCESS" {
		t.Errorf("Parse(0) = %q", got)
	}
	if got := KernReturn.Parse(0x99); got != "0x99" {
		t.Errorf("Parse(0x99) = %q", got)
	}
	if v, ok := DarwinSignals.ParseName("SIGINFO"); !ok || v != 29 {
		t.Errorf("ParseName(SIGINFO) = %d, %t", v, ok)
	}
	if _, ok := DarwinSignals.ParseName("SIGPWR"); ok {
		t.Errorf("ParseName found a Linux-only signal")
	}
}

func TestDarwinOpenFlags(t *testing.T) {
	for _, tc := range []struct {
		val  uint64
		want string
	}{
		{0, "O_RDONLY"},
		{0x1 | 0x200 | 0x400, "O_WRONLY|O_CREAT|O_TRUNC"},
		{0x2 | 0x1000000, "O_RDWR|O_CLOEXEC"},
		{0x100000 | 0x80000000, "O_RDONLY|O_DIRECTORY|0x80000000"},
	} {
		if got := DarwinOpenFlags(tc.val); got != tc.want {
			t.Errorf("DarwinOpenFlags(%#x) = %q, want %q", tc.val, got, tc.want)
		}
	}
}

func TestDarwinProt(t *testing.T) {
	if got := DarwinProt(0); got != "PROT_NONE" {
		t.Errorf("DarwinProt(0) = %q", got)
	}
	if got := DarwinProt(5); got != "PROT_READ|PROT_EXEC" {
		t.Errorf("DarwinProt(5) = %q", got)
	}
}
