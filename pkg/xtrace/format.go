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

package xtrace

import (
	"bytes"
	"fmt"

	"gvisor.dev/xtrace/pkg/xtrace/calldef"
)

const (
	grayColor  = "\033[37m"
	resetColor = "\033[0m"

	// indentWidth is the indentation per nesting level.
	indentWidth = 4
)

// formatter builds trace lines.
type formatter struct {
	noColor bool
}

func (f formatter) gray(b *bytes.Buffer) {
	if !f.noColor {
		b.WriteString(grayColor)
	}
}

func (f formatter) reset(b *bytes.Buffer) {
	if !f.noColor {
		b.WriteString(resetColor)
	}
}

// startLine writes the thread id and the indentation for level.
func (f formatter) startLine(b *bytes.Buffer, tid, level int) {
	f.gray(b)
	fmt.Fprintf(b, "[%d]", tid)
	for i := 0; i < indentWidth*level+1; i++ {
		b.WriteByte(' ')
	}
	f.reset(b)
}

// callName writes the start of a line for call nr. With grayName the name is
// dimmed, and the color is left on.
func (f formatter) callName(b *bytes.Buffer, t *calldef.Table, nr, tid, level int, grayName bool) {
	f.startLine(b, tid, level)
	if grayName {
		f.gray(b)
	}
	if d := t.Lookup(nr); d.Name != "" {
		b.WriteString(d.Name)
	} else {
		fmt.Fprintf(b, "%s %d", t.Type, nr)
	}
}

// entry writes the header of call nr: its name and arguments.
func (f formatter) entry(b *bytes.Buffer, t *calldef.Table, nr int, args []uintptr, tid, level int) {
	f.callName(b, t, nr, tid, level, false)
	d := t.Lookup(nr)
	if d.Name == "" || d.PrintArgs == nil {
		b.WriteString("(...)")
		return
	}
	b.WriteByte('(')
	d.PrintArgs(b, nr, args)
	b.WriteByte(')')
}

// reentry writes the header of call nr again, for an exit that cannot be
// appended to its entry line.
func (f formatter) reentry(b *bytes.Buffer, t *calldef.Table, nr, tid, level int) {
	f.callName(b, t, nr, tid, level, true)
	b.WriteString("()")
}

// result writes the return value of call nr.
func (f formatter) result(b *bytes.Buffer, t *calldef.Table, nr int, retval uintptr) {
	f.gray(b)
	b.WriteString(" -> ")
	f.reset(b)
	d := t.Lookup(nr)
	if d.Name == "" || d.PrintRetval == nil {
		fmt.Fprintf(b, "0x%x", retval)
		return
	}
	d.PrintRetval(b, nr, retval)
}
