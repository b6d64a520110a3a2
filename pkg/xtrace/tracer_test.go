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
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/hostarch"
	"gvisor.dev/xtrace/pkg/xtrace/calldef"
	"gvisor.dev/xtrace/pkg/xtrace/config"
	"gvisor.dev/xtrace/pkg/xtrace/hook"
	"gvisor.dev/xtrace/pkg/xtrace/patch"
	"gvisor.dev/xtrace/pkg/xtrace/sigstack"
	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// BSD syscall numbers used below.
const (
	nrFork   = 2
	nrRead   = 3
	nrWrite  = 4
	nrGetpid = 20
)

type recordingSink struct {
	lines  []string
	errors []string
}

func (r *recordingSink) Log(_ *threadlocal.Thread, line []byte) {
	r.lines = append(r.lines, string(line))
}

func (r *recordingSink) Error(_ *threadlocal.Thread, line []byte) {
	r.errors = append(r.errors, string(line))
}

// fakeSigStack counts alternate signal stack installations.
func fakeSigStack(installs *int) *sigstack.Installer {
	return &sigstack.Installer{
		Install: func(sp, size uintptr) error {
			*installs++
			return nil
		},
	}
}

type testTracer struct {
	*Tracer
	sink     *recordingSink
	tid      int
	installs int
}

func newTestTracer(t *testing.T, conf config.Config) *testTracer {
	t.Helper()
	tt := &testTracer{sink: &recordingSink{}, tid: 7}
	tt.Tracer = New(Opts{
		Config:   &conf,
		Sink:     tt.sink,
		SigStack: fakeSigStack(&tt.installs),
		Gettid:   func() int { return tt.tid },
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	t.Cleanup(func() {
		if tt.stack != nil {
			tt.stack.Release()
		}
	})
	return tt
}

func (tt *testTracer) depth() int {
	th := tt.threads.Get(tt.tid)
	return tt.state(th).nested.current
}

func TestIgnoredBeforeSetup(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	if tt.Tracing() {
		t.Fatalf("tracing before Setup")
	}
	tt.BSDEntry(nrWrite, []uintptr{1, 0, 0})
	tt.BSDExit(0)
	if len(tt.sink.lines) != 0 {
		t.Errorf("lines logged before Setup: %q", tt.sink.lines)
	}
	if tt.threads.Len() != 0 {
		t.Errorf("thread state created before Setup")
	}

	tt.Setup()
	if !tt.Tracing() {
		t.Fatalf("not tracing after Setup")
	}
}

func TestSetupIsIdempotent(t *testing.T) {
	tt := newTestTracer(t, config.Config{})
	tt.Setup()
	tt.Setup()
	if tt.installs != 1 {
		t.Errorf("signal stack installed %d times, want 1", tt.installs)
	}
	if tt.stack == nil || tt.stack.Size != sigstack.DefaultSize {
		t.Errorf("signal stack = %+v, want %d bytes", tt.stack, sigstack.DefaultSize)
	}
}

func TestSingleCallIsOneLine(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.BSDEntry(nrWrite, []uintptr{1, 0x1000, 6})
	tt.BSDExit(6)

	want := []string{"[7] write(1, 0x1000, 6) -> 6\n"}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedCallsSplit(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.BSDEntry(nrRead, []uintptr{0, 0, 1})
	tt.BSDEntry(nrGetpid, nil)
	tt.BSDExit(5)
	tt.BSDExit(10)

	want := []string{
		"[7] read(0, 0x0, 1)\n",
		"[7]     getpid() -> 5\n",
		"[7] read() -> 10\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitMode(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true, SplitEntryAndExit: true})
	tt.Setup()

	tt.BSDEntry(nrWrite, []uintptr{1, 0x1000, 6})
	tt.BSDExit(6)
	tt.BSDEntry(nrRead, []uintptr{0, 0, 1})
	tt.BSDEntry(nrGetpid, nil)
	tt.BSDExit(5)
	tt.BSDExit(10)

	want := []string{
		"[7] write(1, 0x1000, 6)\n",
		"[7] write() -> 6\n",
		"[7] read(0, 0x0, 1)\n",
		"[7]     getpid()\n",
		"[7]     getpid() -> 5\n",
		"[7] read() -> 10\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestForceSplit(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.MachEntry(26, nil)
	tt.MachExit(0x103, true)

	want := []string{
		"[7] mach_reply_port()\n",
		"[7] mach_reply_port() -> 259\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownCall(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.BSDEntry(9999, []uintptr{1, 2})
	tt.BSDExit(0x2a)
	tt.MachEntry(-1, nil)
	tt.MachExit(0, false)

	want := []string{
		"[7] bsd 9999(...) -> 0x2a\n",
		"[7] mach -1(...) -> 0x0\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestColor(t *testing.T) {
	tt := newTestTracer(t, config.Config{})
	tt.Setup()

	tt.BSDEntry(nrRead, []uintptr{0, 0, 1})
	tt.BSDEntry(nrGetpid, nil)
	tt.BSDExit(5)
	tt.BSDExit(10)

	want := []string{
		"\033[37m[7] \033[0mread(0, 0x0, 1)\n",
		"\033[37m[7]     \033[0mgetpid()\033[37m -> \033[0m5\n",
		"\033[37m[7] \033[0m\033[37mread()\033[37m -> \033[0m10\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestThreadsAreIndependent(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.tid = 1
	tt.BSDEntry(nrRead, []uintptr{0, 0, 1})
	tt.tid = 2
	tt.BSDEntry(nrGetpid, nil)
	tt.BSDExit(5)
	tt.tid = 1
	tt.BSDExit(1)

	want := []string{
		"[2] getpid() -> 5\n",
		"[1] read(0, 0x0, 1) -> 1\n",
	}
	if diff := cmp.Diff(want, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestDepthIsEntriesMinusExits(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	r := rand.New(rand.NewSource(1))
	want := 0
	for i := 0; i < 1000; i++ {
		if r.Intn(2) == 0 && want < maxNesting {
			tt.BSDEntry(nrGetpid, nil)
			want++
		} else {
			tt.BSDExit(0)
			if want > 0 {
				want--
			}
		}
		got := tt.depth()
		if got < 0 {
			t.Fatalf("step %d: depth %d is negative", i, got)
		}
		if got != want {
			t.Fatalf("step %d: depth = %d, want %d", i, got, want)
		}
	}
}

func TestNestingOverflow(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true, SplitEntryAndExit: true})
	tt.Setup()

	for i := 0; i < maxNesting+1; i++ {
		tt.BSDEntry(nrGetpid, nil)
	}
	if got := len(tt.sink.lines); got != maxNesting {
		t.Errorf("%d entry lines, want %d", got, maxNesting)
	}
	if got := tt.depth(); got != maxNesting {
		t.Errorf("depth = %d, want %d", got, maxNesting)
	}

	tt.sink.lines = nil
	for i := 0; i < maxNesting+1; i++ {
		tt.BSDExit(0)
	}
	if got := len(tt.sink.lines); got != maxNesting {
		t.Errorf("%d exit lines, want %d", got, maxNesting)
	}
	if got := tt.depth(); got != 0 {
		t.Errorf("depth = %d, want 0", got)
	}
	// The innermost traced call is the first exit printed.
	indent := "[7]" + strings.Repeat(" ", indentWidth*(maxNesting-1)+1) + "getpid() -> 0\n"
	if tt.sink.lines[0] != indent {
		t.Errorf("first exit line = %q, want %q", tt.sink.lines[0], indent)
	}
}

func TestNestingOverflowOneLinePerCall(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	const calls = maxNesting + 2
	for i := 0; i < calls; i++ {
		tt.BSDEntry(nrGetpid, nil)
	}
	for i := 0; i < calls; i++ {
		tt.BSDExit(0)
	}
	if got := tt.depth(); got != 0 {
		t.Errorf("depth = %d, want 0", got)
	}

	// Every traced entry but the innermost is flushed on its own, the
	// innermost gets its result appended, and every other exit is split.
	if got, want := len(tt.sink.lines), 2*maxNesting-1; got != want {
		t.Errorf("%d lines, want %d", got, want)
	}
	for i, line := range tt.sink.lines {
		if !strings.HasPrefix(line, "[7] ") {
			t.Errorf("line %d has no header: %q", i, line)
		}
	}
	innermost := "[7]" + strings.Repeat(" ", indentWidth*(maxNesting-1)+1) + "getpid() -> 0\n"
	if got := tt.sink.lines[maxNesting-1]; got != innermost {
		t.Errorf("innermost line = %q, want %q", got, innermost)
	}
}

func TestExitWithoutEntry(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()

	tt.BSDExit(0)
	if len(tt.sink.lines) != 0 {
		t.Errorf("unmatched exit logged %q", tt.sink.lines)
	}
	tt.BSDEntry(nrGetpid, nil)
	tt.BSDExit(3)
	if diff := cmp.Diff([]string{"[7] getpid() -> 3\n"}, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorfAndLogf(t *testing.T) {
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Errorf("before setup %d\n", 1)
	tt.Setup()
	tt.Logf("detail %s\n", "x")
	tt.Errorf("bad %d\n", 2)

	if diff := cmp.Diff([]string{"detail x\n"}, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bad 2\n"}, tt.sink.errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSetupInstallsHooks(t *testing.T) {
	mem, err := unix.Mmap(-1, 0, 2*hostarch.PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	defer unix.Munmap(mem)
	slot := func(off int) hook.Slot {
		return hook.Slot(uintptr(unsafe.Pointer(&mem[off])))
	}
	stubs := &hook.Stubs{
		MachEntry:           slot(0),
		MachExit:            slot(64),
		BSDEntry:            slot(128),
		BSDExit:             slot(192),
		MachEntryTrampoline: 0x1000,
		MachExitTrampoline:  0x2000,
		BSDEntryTrampoline:  0x3000,
		BSDExitTrampoline:   0x4000,
		ThreadExit:          slot(hostarch.PageSize),
		ExecveInject:        slot(hostarch.PageSize + 64),
		PostForkChild:       slot(hostarch.PageSize + 128),
	}
	windows := 0
	installs := 0
	tr := New(Opts{
		Config:   &config.Config{},
		Sink:     &recordingSink{},
		Stubs:    stubs,
		Handlers: hook.Handlers{ThreadExit: 0x5000, ExecveInject: 0x6000, PostForkChild: 0x7000},
		Installer: &hook.Installer{
			Protect: func(hostarch.AddrRange, int) error {
				windows++
				return nil
			},
			Abort: func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
		},
		SigStack: fakeSigStack(&installs),
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	tr.Setup()
	defer tr.stack.Release()

	// Two windows for the syscall hooks and one per lifecycle hook, each
	// opened and closed.
	if windows != 2*5 {
		t.Errorf("%d protection changes, want 10", windows)
	}
	for _, tc := range []struct {
		off  int
		fn   uint64
		jump bool
	}{
		{0, 0x1000, false},
		{64, 0x2000, false},
		{128, 0x3000, false},
		{192, 0x4000, false},
		{hostarch.PageSize, 0x5000, true},
		{hostarch.PageSize + 64, 0x6000, true},
		{hostarch.PageSize + 128, 0x7000, true},
	} {
		fn, jump, err := patch.Decode(patch.Native, mem[tc.off:tc.off+patch.Size])
		if err != nil {
			t.Errorf("slot at %d: %v", tc.off, err)
			continue
		}
		if fn != tc.fn || jump != tc.jump {
			t.Errorf("slot at %d = (%#x, %t), want (%#x, %t)", tc.off, fn, jump, tc.fn, tc.jump)
		}
	}
}

func TestSigStackFailureAborts(t *testing.T) {
	var aborted string
	tr := New(Opts{
		Config: &config.Config{},
		Sink:   &recordingSink{},
		SigStack: &sigstack.Installer{
			Install: func(sp, size uintptr) error { return unix.EPERM },
		},
		Abort: func(msg string) { aborted = msg },
	})
	tr.Setup()
	if !strings.Contains(aborted, "failed to override sigaltstack") {
		t.Errorf("abort message = %q", aborted)
	}
	if tr.Tracing() {
		t.Errorf("tracing enabled after a failed setup")
	}
}

func TestCustomTable(t *testing.T) {
	tbl := &calldef.Table{Type: "mig", Calls: map[int]calldef.Definition{
		1: {Name: "hello"},
	}}
	tt := newTestTracer(t, config.Config{NoColor: true})
	tt.Setup()
	tt.Entry(tbl, 1, nil)
	tt.Exit(tbl, 1, false)
	if diff := cmp.Diff([]string{"[7] hello(...) -> 0x1\n"}, tt.sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(b)
}

func newFileTracer(t *testing.T, tid *int) (*Tracer, string) {
	base := filepath.Join(t.TempDir(), "trace")
	installs := 0
	tr := New(Opts{
		Config:   &config.Config{NoColor: true, LogFile: base, PerThreadLogFile: true},
		SigStack: fakeSigStack(&installs),
		Gettid:   func() int { return *tid },
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	tr.Setup()
	t.Cleanup(func() { tr.stack.Release() })
	return tr, base
}

func TestThreadExitReleasesState(t *testing.T) {
	tid := 7
	tr, base := newFileTracer(t, &tid)

	tr.BSDEntry(nrGetpid, nil)
	tr.BSDExit(1)
	if got := readFile(t, base+".7"); got != "[7] getpid() -> 1\n" {
		t.Errorf("%s.7 = %q", base, got)
	}

	tr.ThreadExit(7)
	if _, ok := tr.threads.Lookup(7); ok {
		t.Errorf("thread 7 state kept after exit")
	}

	// A new thread reusing the id starts from scratch.
	tr.BSDEntry(nrGetpid, nil)
	tr.BSDExit(2)
	if got := readFile(t, base+".7"); got != "[7] getpid() -> 1\n[7] getpid() -> 2\n" {
		t.Errorf("%s.7 = %q", base, got)
	}
}

func TestPostForkChild(t *testing.T) {
	tid := 7
	tr, base := newFileTracer(t, &tid)

	tr.BSDEntry(nrGetpid, nil)
	tr.BSDExit(100)
	tr.BSDEntry(nrFork, nil)

	// Now in the child.
	tid = 8
	tr.PostForkChild(7)
	tr.BSDExit(0)
	tr.BSDEntry(nrGetpid, nil)
	tr.BSDExit(200)

	if got := readFile(t, base+".7"); got != "[7] getpid() -> 100\n" {
		t.Errorf("%s.7 = %q", base, got)
	}
	want := "[7] fork() -> 0\n[8] getpid() -> 200\n"
	if got := readFile(t, base+".8"); got != want {
		t.Errorf("%s.8 = %q, want %q", base, got, want)
	}
}

func TestExecveInject(t *testing.T) {
	tt := newTestTracer(t, config.Config{
		NoColor:          true,
		PerThreadLogFile: true,
		LogFile:          "/tmp/trace",
	})
	tt.Setup()

	for _, tc := range []struct {
		name string
		env  []string
		want []string
	}{
		{
			name: "empty",
			env:  nil,
			want: []string{
				"XTRACE_SPLIT_ENTRY_AND_EXIT=0",
				"XTRACE_NO_COLOR=1",
				"XTRACE_KPRINTF=0",
				"XTRACE_LOG_FILE_PER_THREAD=1",
				"XTRACE_LOG_FILE=/tmp/trace",
				"DYLD_INSERT_LIBRARIES=" + LibraryPath,
			},
		},
		{
			name: "overwrite in place",
			env: []string{
				"HOME=/Users/me",
				"XTRACE_LOG_FILE_PER_THREAD=0",
				"DYLD_INSERT_LIBRARIES=/usr/lib/libfoo.dylib",
				"TERM=xterm",
			},
			want: []string{
				"HOME=/Users/me",
				"XTRACE_LOG_FILE_PER_THREAD=1",
				"DYLD_INSERT_LIBRARIES=/usr/lib/libfoo.dylib:" + LibraryPath,
				"TERM=xterm",
				"XTRACE_SPLIT_ENTRY_AND_EXIT=0",
				"XTRACE_NO_COLOR=1",
				"XTRACE_KPRINTF=0",
				"XTRACE_LOG_FILE=/tmp/trace",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := tt.ExecveInject(tc.env)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ExecveInject mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecveInjectRoundTrip(t *testing.T) {
	conf := config.Config{SplitEntryAndExit: true, Kprintf: true, LogFile: "/var/log/x"}
	tt := newTestTracer(t, conf)
	tt.Setup()

	env := tt.ExecveInject([]string{"PATH=/bin"})
	lookup := func(key string) (string, bool) {
		for _, kv := range env {
			if k, v, ok := strings.Cut(kv, "="); ok && k == key {
				return v, true
			}
		}
		return "", false
	}
	if diff := cmp.Diff(&conf, config.FromEnv(lookup)); diff != "" {
		t.Errorf("child config mismatch (-want +got):\n%s", diff)
	}
}

func TestExecveInjectBeforeSetup(t *testing.T) {
	// Without Setup, the configuration given in Opts is exported.
	tt := New(Opts{Config: &config.Config{Kprintf: true}})
	got := tt.ExecveInject([]string{"DYLD_INSERT_LIBRARIES=" + LibraryPath})
	want := []string{
		"DYLD_INSERT_LIBRARIES=" + LibraryPath + ":" + LibraryPath,
		"XTRACE_SPLIT_ENTRY_AND_EXIT=0",
		"XTRACE_NO_COLOR=0",
		"XTRACE_KPRINTF=1",
		"XTRACE_LOG_FILE_PER_THREAD=0",
		"XTRACE_LOG_FILE=",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExecveInject mismatch (-want +got):\n%s", diff)
	}
}
