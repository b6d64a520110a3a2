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

// Package sigstack allocates the alternate signal stack the tracer runs on
// when a traced call is made from a signal handler.
package sigstack

import (
	"fmt"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/cleanup"
	"gvisor.dev/xtrace/pkg/hostarch"
	"gvisor.dev/xtrace/pkg/log"
)

const (
	// DefaultSize is the size of the alternate signal stack. The usual
	// 8 KiB is not enough to format trace lines.
	DefaultSize = 16 * 1024

	// GuardSize is the size of the inaccessible region below the stack.
	GuardSize = hostarch.PageSize
)

// Stack is an alternate signal stack.
type Stack struct {
	// mapping covers the guard page, if any, and the stack.
	mapping []byte

	// Sp is the lowest usable address of the stack.
	Sp uintptr

	// Size is the usable size of the stack.
	Size uintptr
}

// Allocate maps a stack of the given size. With guard, an inaccessible page
// is mapped immediately below it, so that an overflow faults instead of
// silently corrupting whatever lies below.
func Allocate(size int, guard bool) (*Stack, error) {
	total := size
	if guard {
		total += GuardSize
	}
	m, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mapping %d byte signal stack: %w", total, err)
	}
	cu := cleanup.Make(func() {
		if err := unix.Munmap(m); err != nil {
			log.Warningf("Unmapping signal stack: %v", err)
		}
	})
	defer cu.Clean()

	usable := m
	if guard {
		if err := unix.Mprotect(m[:GuardSize], unix.PROT_NONE); err != nil {
			return nil, fmt.Errorf("protecting signal stack guard page: %w", err)
		}
		usable = m[GuardSize:]
	}

	cu.Release()
	s := &Stack{
		mapping: m,
		Sp:      sliceAddr(usable),
		Size:    uintptr(len(usable)),
	}
	log.Debugf("Allocated signal stack [%#x, %#x), guard=%t", s.Sp, s.Sp+s.Size, guard)
	return s, nil
}

// Release unmaps the stack. It must not be installed.
func (s *Stack) Release() error {
	if s.mapping == nil {
		return nil
	}
	err := unix.Munmap(s.mapping)
	s.mapping = nil
	return err
}

// Installer makes a stack the alternate signal stack of the calling thread
// and of threads created afterwards.
type Installer struct {
	// Install sets the calling thread's alternate signal stack.
	Install func(sp, size uintptr) error

	// SetDefaultSize sets the alternate signal stack size of threads
	// created from now on. May be nil.
	SetDefaultSize func(size uintptr)
}

// NewInstaller returns an Installer that calls sigaltstack(2) directly.
func NewInstaller(setDefaultSize func(size uintptr)) *Installer {
	return &Installer{
		Install:        sigaltstack,
		SetDefaultSize: setDefaultSize,
	}
}

// Setup allocates and installs a stack.
func (i *Installer) Setup(size int, guard bool) (*Stack, error) {
	s, err := Allocate(size, guard)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate larger sigstack for main thread: %w", err)
	}
	if err := i.Install(s.Sp, s.Size); err != nil {
		_ = s.Release()
		return nil, fmt.Errorf("failed to override sigaltstack: %w", err)
	}
	if i.SetDefaultSize != nil {
		i.SetDefaultSize(s.Size)
	}
	return s, nil
}
