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

// Package xtrace traces the Mach and BSD calls of the process it runs in.
//
// The syscall dispatch code reserves a hook slot at the start and end of every
// call. Setup patches those slots to call trampolines, which in turn call
// Entry and Exit. Each call is printed as one line holding its name,
// arguments and result, or as two lines when other calls happen in between:
//
//	[1234] write(1, 0x7ffd1000, 6) -> 6
//	[1234] mach_msg_trap(0x7ffd2000, 0x3, 40, 40, 259, 0, 0)
//	[1234]     mach_reply_port() -> 1283
//	[1234] mach_msg_trap() -> KERN_SUCCESS
package xtrace

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace/calldef"
	"gvisor.dev/xtrace/pkg/xtrace/config"
	"gvisor.dev/xtrace/pkg/xtrace/hook"
	"gvisor.dev/xtrace/pkg/xtrace/sigstack"
	"gvisor.dev/xtrace/pkg/xtrace/sink"
	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// Opts are the collaborators of a Tracer. Zero fields get defaults.
type Opts struct {
	// Config overrides the configuration read from the environment.
	Config *config.Config

	// Stubs are the hook slots to patch. Nil skips patching, for callers
	// that invoke Entry and Exit themselves.
	Stubs *hook.Stubs

	// Handlers are the lifecycle entry points jumped to from the
	// lifecycle slots of Stubs.
	Handlers hook.Handlers

	// Installer patches the slots. Defaults to mprotect(2) based patching.
	Installer *hook.Installer

	// SigStack installs the alternate signal stack. Defaults to
	// sigaltstack(2).
	SigStack *sigstack.Installer

	// Kprintf writes to the kernel log. Defaults to /dev/kmsg.
	Kprintf func(line []byte) error

	// Sink overrides the sink selected by the configuration.
	Sink sink.Sink

	// Abort terminates the process with a diagnostic. It must not return.
	Abort func(message string)

	// Gettid returns the calling thread's kernel id.
	Gettid func() int

	// Mach and BSD describe the traced calls. Default to
	// calldef.MachTraps and calldef.BSDSyscalls.
	Mach *calldef.Table
	BSD  *calldef.Table
}

// threadState is the per-thread state of the tracer.
type threadState struct {
	nested nestedCalls

	// line is the line being built. It is kept between an entry and its
	// exit so that the result can be appended to it.
	line bytes.Buffer
}

// Tracer traces calls.
type Tracer struct {
	opts Opts

	// ignore is set until Setup completes. While set, Entry and Exit do
	// nothing, so the calls Setup itself makes are not traced. It is never
	// set again.
	ignore atomic.Bool

	setupOnce sync.Once

	// The fields below are set by Setup and never change afterwards.
	conf  *config.Config
	lines formatter
	sink  sink.Sink
	stack *sigstack.Stack

	threads  threadlocal.Registry
	stateKey *threadlocal.Key

	warnings log.Logger
}

// New returns a Tracer. It does not trace anything until Setup is called.
func New(opts Opts) *Tracer {
	if opts.Abort == nil {
		opts.Abort = Abort
	}
	if opts.Gettid == nil {
		opts.Gettid = unix.Gettid
	}
	if opts.Installer == nil {
		opts.Installer = hook.NewInstaller(opts.Abort)
	}
	if opts.SigStack == nil {
		opts.SigStack = sigstack.NewInstaller(nil)
	}
	if opts.Mach == nil {
		opts.Mach = calldef.MachTraps
	}
	if opts.BSD == nil {
		opts.BSD = calldef.BSDSyscalls
	}
	t := &Tracer{
		opts:     opts,
		warnings: log.BasicRateLimitedLogger(time.Second),
	}
	t.ignore.Store(true)
	t.stateKey = t.threads.NewKey("xtrace", nil)
	return t
}

// Setup reads the configuration, patches the hook slots and installs a larger
// alternate signal stack, then enables tracing. Only the first call does
// anything. It must run before other threads make traced calls.
func (t *Tracer) Setup() {
	t.setupOnce.Do(t.setup)
}

func (t *Tracer) setup() {
	conf := t.opts.Config
	if conf == nil {
		conf = config.FromProcessEnv()
	}
	if err := conf.Validate(); err != nil {
		log.Warningf("Questionable configuration: %v", err)
	}
	conf.Log()
	t.conf = conf
	t.lines = formatter{noColor: conf.NoColor}

	t.sink = t.opts.Sink
	if t.sink == nil {
		t.sink = sink.New(conf, sink.Opts{
			Registry: &t.threads,
			Abort:    t.opts.Abort,
			Kprintf:  t.opts.Kprintf,
		})
	}

	if s := t.opts.Stubs; s != nil {
		t.opts.Installer.InstallSyscallHooks(s)
		t.opts.Installer.InstallLifecycleHooks(s, t.opts.Handlers)
	}

	stack, err := t.opts.SigStack.Setup(sigstack.DefaultSize, true)
	if err != nil {
		t.opts.Abort(err.Error())
		return
	}
	t.stack = stack

	t.ignore.Store(false)
	log.Infof("Tracing enabled, sink: %v", conf.Sink())
}

// Tracing returns true once Setup has completed.
func (t *Tracer) Tracing() bool {
	return !t.ignore.Load()
}

// Config returns the configuration. It is nil before Setup.
func (t *Tracer) Config() *config.Config {
	return t.conf
}

// current returns the storage of the calling thread.
func (t *Tracer) current() *threadlocal.Thread {
	return t.threads.Get(t.opts.Gettid())
}

func (t *Tracer) state(th *threadlocal.Thread) *threadState {
	if v := th.Value(t.stateKey); v != nil {
		return v.(*threadState)
	}
	st := &threadState{}
	th.SetValue(t.stateKey, st)
	return st
}

// flush writes out the line being built.
func (t *Tracer) flush(th *threadlocal.Thread, st *threadState) {
	st.line.WriteByte('\n')
	t.sink.Log(th, st.line.Bytes())
	st.line.Reset()
}

// Entry traces the entry of call nr of table tbl.
func (t *Tracer) Entry(tbl *calldef.Table, nr int, args []uintptr) {
	if t.ignore.Load() {
		return
	}
	th := t.current()
	st := t.state(th)
	split := t.conf.SplitEntryAndExit

	open := st.nested.lineOpen()
	level := st.nested.depth()
	if err := st.nested.push(nr); err != nil {
		// The open line, if any, stays open for the result of the
		// innermost traced call.
		t.warnings.Warningf("Thread %d: not tracing %s %d: %v", th.TID, tbl.Type, nr, err)
		return
	}

	// A previous entry on this thread has not exited; its line cannot
	// wait for its result any longer.
	if open && !split {
		t.flush(th, st)
	}
	t.lines.entry(&st.line, tbl, nr, args, th.TID, level)
	if split {
		t.flush(th, st)
	}
}

// Exit traces the exit of the innermost call of table tbl. forceSplit prints
// the result on a line of its own, e.g. because something else was printed
// since the entry.
func (t *Tracer) Exit(tbl *calldef.Table, retval uintptr, forceSplit bool) {
	if t.ignore.Load() {
		return
	}
	th := t.current()
	st := t.state(th)

	if st.nested.afterExit() {
		forceSplit = true
	}
	nr, level, err := st.nested.pop()
	if err != nil {
		t.warnings.Warningf("Thread %d: not tracing %s exit: %v", th.TID, tbl.Type, err)
		return
	}

	if t.conf.SplitEntryAndExit || forceSplit {
		// The entry line is still open if the caller forced the split.
		if st.line.Len() > 0 {
			t.flush(th, st)
		}
		t.lines.reentry(&st.line, tbl, nr, th.TID, level)
	}
	t.lines.result(&st.line, tbl, nr, retval)
	t.flush(th, st)
}

// MachEntry traces the entry of Mach trap nr.
func (t *Tracer) MachEntry(nr int, args []uintptr) {
	t.Entry(t.opts.Mach, nr, args)
}

// MachExit traces the exit of the innermost Mach trap.
func (t *Tracer) MachExit(retval uintptr, forceSplit bool) {
	t.Exit(t.opts.Mach, retval, forceSplit)
}

// BSDEntry traces the entry of BSD syscall nr.
func (t *Tracer) BSDEntry(nr int, args []uintptr) {
	t.Entry(t.opts.BSD, nr, args)
}

// BSDExit traces the exit of the innermost BSD syscall.
func (t *Tracer) BSDExit(retval uintptr) {
	t.Exit(t.opts.BSD, retval, false)
}

// Logf writes a line to the trace sink on behalf of the calling thread. It is
// used by collaborators that print extra detail, such as decoded messages,
// between an entry and its exit.
func (t *Tracer) Logf(format string, v ...any) {
	if t.sink == nil {
		log.Infof(format, v...)
		return
	}
	sink.Printf(t.sink, t.current(), format, v...)
}

// Errorf reports an error through the trace sink. Errors go to standard
// error rather than standard output when there is no log file or kernel log.
func (t *Tracer) Errorf(format string, v ...any) {
	if t.sink == nil {
		log.Warningf(format, v...)
		return
	}
	sink.Errorf(t.sink, t.current(), format, v...)
}
