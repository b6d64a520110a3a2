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

// Package hook installs trampolines into the slots reserved in the syscall
// entry and exit stubs.
//
// Code pages are only writable for the duration of an Install call: the
// covering page range is made read+write+execute, every slot in it is
// patched, and the range is restored to read+execute.
package hook

import (
	"fmt"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/hostarch"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace/patch"
)

// Slot is the address of a reserved hook region. The region is patch.Size
// bytes long.
type Slot uintptr

// Range returns the bytes covered by the slot.
func (s Slot) Range() hostarch.AddrRange {
	r, ok := hostarch.Addr(s).ToRange(uint64(patch.Size))
	if !ok {
		panic(fmt.Sprintf("hook slot %#x overflows the address space", uintptr(s)))
	}
	return r
}

// Target is a slot and the handler it transfers control to.
type Target struct {
	Slot Slot

	// Fn is the address of the handler.
	Fn uintptr

	// Jump selects a tail jump instead of a call. Jump hooks never return
	// to the stub.
	Jump bool
}

// Stubs holds the addresses exported by the syscall dispatch code: the
// reserved slots and the trampolines that enter the tracer.
type Stubs struct {
	MachEntry Slot
	MachExit  Slot
	BSDEntry  Slot
	BSDExit   Slot

	MachEntryTrampoline uintptr
	MachExitTrampoline  uintptr
	BSDEntryTrampoline  uintptr
	BSDExitTrampoline   uintptr

	// Slots for lifecycle notifications.
	ThreadExit    Slot
	ExecveInject  Slot
	PostForkChild Slot
}

// Handlers are the entry points of the lifecycle hooks.
type Handlers struct {
	ThreadExit    uintptr
	ExecveInject  uintptr
	PostForkChild uintptr
}

const (
	protRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	protRX  = unix.PROT_READ | unix.PROT_EXEC
)

// Installer patches hook slots.
type Installer struct {
	// Protect changes the protection of a page-aligned range.
	Protect func(ar hostarch.AddrRange, prot int) error

	// Abort terminates the process. Installation cannot be retried or
	// rolled back once code pages are half patched.
	Abort func(message string)
}

// NewInstaller returns an Installer that uses mprotect(2).
func NewInstaller(abort func(string)) *Installer {
	return &Installer{
		Protect: mprotect,
		Abort:   abort,
	}
}

// PageRange returns the page-aligned range covering every target slot. The
// start is rounded down and the end rounded up, so slots that straddle a page
// boundary are fully covered.
func PageRange(targets ...Target) hostarch.AddrRange {
	var ar hostarch.AddrRange
	for _, t := range targets {
		ar = ar.Union(t.Slot.Range())
	}
	out, ok := ar.RoundOut()
	if !ok {
		panic(fmt.Sprintf("hook range %v overflows the address space", ar))
	}
	return out
}

// Install patches all targets inside a single write window.
func (i *Installer) Install(targets ...Target) {
	if len(targets) == 0 {
		return
	}
	ar := PageRange(targets...)
	if err := i.Protect(ar, protRWX); err != nil {
		i.Abort(fmt.Sprintf("failed to make %v writable: %v", ar, err))
		return
	}
	for _, t := range targets {
		patch.Write(slotBytes(t.Slot), t.Fn, t.Jump)
		log.Debugf("Installed hook at %#x -> %#x (jump=%t)", uintptr(t.Slot), t.Fn, t.Jump)
	}
	if err := i.Protect(ar, protRX); err != nil {
		i.Abort(fmt.Sprintf("failed to restore protection of %v: %v", ar, err))
	}
}

// InstallSyscallHooks installs the Mach and BSD entry/exit hooks. The entry
// and exit slots of a family share a write window.
func (i *Installer) InstallSyscallHooks(s *Stubs) {
	i.Install(
		Target{Slot: s.MachEntry, Fn: s.MachEntryTrampoline},
		Target{Slot: s.MachExit, Fn: s.MachExitTrampoline},
	)
	i.Install(
		Target{Slot: s.BSDEntry, Fn: s.BSDEntryTrampoline},
		Target{Slot: s.BSDExit, Fn: s.BSDExitTrampoline},
	)
}

// InstallLifecycleHooks installs the thread-exit, execve and post-fork hooks.
// Each one jumps to its handler and lives in its own write window.
func (i *Installer) InstallLifecycleHooks(s *Stubs, h Handlers) {
	i.Install(Target{Slot: s.ThreadExit, Fn: h.ThreadExit, Jump: true})
	i.Install(Target{Slot: s.ExecveInject, Fn: h.ExecveInject, Jump: true})
	i.Install(Target{Slot: s.PostForkChild, Fn: h.PostForkChild, Jump: true})
}
