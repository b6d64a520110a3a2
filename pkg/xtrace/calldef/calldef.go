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

// Package calldef describes traced calls: their names and how to print their
// arguments and return values.
package calldef

import (
	"bytes"
	"fmt"
	"sort"

	"gvisor.dev/xtrace/pkg/abi"
	"gvisor.dev/xtrace/pkg/errno"
)

// ArgsPrinter appends the formatted arguments of call nr to b, without the
// surrounding parentheses.
type ArgsPrinter func(b *bytes.Buffer, nr int, args []uintptr)

// RetvalPrinter appends the formatted return value of call nr to b.
type RetvalPrinter func(b *bytes.Buffer, nr int, retval uintptr)

// Definition describes one call. The zero Definition describes an unknown
// call, printed by number with elided arguments and a hexadecimal result.
type Definition struct {
	// Name is the name of the call. Empty if unknown.
	Name string

	// Args is the number of arguments PrintArgs prints.
	Args int

	// PrintArgs formats the arguments. May be nil.
	PrintArgs ArgsPrinter

	// PrintRetval formats the return value. May be nil.
	PrintRetval RetvalPrinter
}

// Table maps call numbers of one call family to their definitions.
type Table struct {
	// Type names the call family, e.g. "mach" or "bsd". Unknown calls are
	// printed as "<Type> <nr>".
	Type string

	// Calls holds the known calls.
	Calls map[int]Definition
}

// Lookup returns the definition of call nr. Unknown calls return the zero
// Definition.
func (t *Table) Lookup(nr int) Definition {
	return t.Calls[nr]
}

// Numbers returns the known call numbers in increasing order.
func (t *Table) Numbers() []int {
	nrs := make([]int, 0, len(t.Calls))
	for nr := range t.Calls {
		nrs = append(nrs, nr)
	}
	sort.Ints(nrs)
	return nrs
}

// FormatSpecifier values describe how an individual argument should be
// formatted.
type FormatSpecifier int

// Valid FormatSpecifiers.
const (
	// Hex is just a hexadecimal number.
	Hex FormatSpecifier = iota

	// Oct is just an octal number.
	Oct

	// Int is a signed decimal number.
	Int

	// FD is a file descriptor.
	FD

	// Port is a Mach port name.
	Port

	// OpenFlags are open(2) flags.
	OpenFlags

	// Mode is a mode_t.
	Mode

	// Prot is a memory protection.
	Prot

	// MmapFlags are mmap(2) flags.
	MmapFlags

	// Signal is a signal number.
	Signal
)

// RetFormat describes how a return value should be formatted.
type RetFormat int

// Valid RetFormats.
const (
	// RetHex is a hexadecimal number.
	RetHex RetFormat = iota

	// RetInt is a decimal result, or a negated Darwin error number.
	RetInt

	// RetKern is a kern_return_t or mach_msg_return_t.
	RetKern

	// RetPort is a Mach port name.
	RetPort

	// RetPtr is an address, or a negated Darwin error number.
	RetPtr
)

// maxErrno bounds the negated error numbers a BSD call returns.
const maxErrno = 4095

func formatArg(f FormatSpecifier, v uintptr) string {
	switch f {
	case Oct:
		return fmt.Sprintf("%#o", v)
	case Int, FD:
		return fmt.Sprintf("%d", int(v))
	case Port:
		return fmt.Sprintf("%d", uint32(v))
	case OpenFlags:
		return abi.DarwinOpenFlags(uint64(v))
	case Mode:
		return fmt.Sprintf("%#o", uint32(v))
	case Prot:
		return abi.DarwinProt(uint64(v))
	case MmapFlags:
		return abi.DarwinMmapFlagSet.Parse(uint64(v))
	case Signal:
		return abi.DarwinSignals.Parse(uint64(v))
	default:
		return fmt.Sprintf("%#x", v)
	}
}

// bsdError returns the error number carried by a BSD result, if any.
func bsdError(v uintptr) (int, bool) {
	r := int(v)
	if r < 0 && r >= -maxErrno {
		return -r, true
	}
	return 0, false
}

func formatRetval(f RetFormat, v uintptr) string {
	switch f {
	case RetInt, RetPtr:
		if e, ok := bsdError(v); ok {
			return fmt.Sprintf("-1 %s (%v)", errno.Name(e), errno.Errno(e))
		}
		if f == RetPtr {
			return fmt.Sprintf("%#x", v)
		}
		return fmt.Sprintf("%d", int(v))
	case RetKern:
		return abi.KernReturn.Parse(uint64(uint32(v)))
	case RetPort:
		return fmt.Sprintf("%d", uint32(v))
	default:
		return fmt.Sprintf("%#x", v)
	}
}

// makeDefinition returns a Definition that prints arguments per format.
// Arguments without a corresponding entry in format are not printed.
func makeDefinition(name string, ret RetFormat, format ...FormatSpecifier) Definition {
	return Definition{
		Name: name,
		Args: len(format),
		PrintArgs: func(b *bytes.Buffer, _ int, args []uintptr) {
			for i, f := range format {
				if i >= len(args) {
					break
				}
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(formatArg(f, args[i]))
			}
		},
		PrintRetval: func(b *bytes.Buffer, _ int, retval uintptr) {
			b.WriteString(formatRetval(ret, retval))
		},
	}
}
