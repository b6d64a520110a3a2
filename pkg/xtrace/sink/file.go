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

package sink

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// openFlags are the flags log files are opened with.
const openFlags = unix.O_WRONLY | unix.O_APPEND | unix.O_CREAT | unix.O_CLOEXEC

// File writes lines to a log file. The file is either shared by every thread
// and opened exactly once, or private to each thread and named
// <base>.<tid>. Files are opened on first use; failing to open one aborts the
// process.
type File struct {
	base      string
	perThread bool
	abort     func(string)

	// open opens a log file. It is log.OpenFile outside of tests.
	open func(base string, flags int, opts log.FileOpts) (*os.File, error)

	// key holds the *os.File of a thread in per-thread mode.
	key *threadlocal.Key

	sharedOnce sync.Once
	shared     *os.File
}

// NewFile returns a file sink. Per-thread files are stored in reg and closed
// when their thread exits.
func NewFile(reg *threadlocal.Registry, base string, perThread bool, abort func(string)) *File {
	f := &File{
		base:      base,
		perThread: perThread,
		abort:     abort,
		open:      log.OpenFile,
	}
	f.key = reg.NewKey("logfile", func(th *threadlocal.Thread, v any) {
		if err := v.(*os.File).Close(); err != nil {
			log.Warningf("Closing log file of %v: %v", th, err)
		}
	})
	return f
}

func (f *File) mustOpen(opts log.FileOpts) *os.File {
	file, err := f.open(f.base, openFlags, opts)
	if err == nil && file == nil {
		err = fmt.Errorf("empty log file path")
	}
	if err != nil {
		f.abort(fmt.Sprintf("failed to open logfile: %v", err))
		return nil
	}
	return file
}

// file returns the file th writes to.
func (f *File) file(th *threadlocal.Thread) *os.File {
	if !f.perThread {
		f.sharedOnce.Do(func() {
			f.shared = f.mustOpen(log.PlainFile{})
		})
		return f.shared
	}
	if v := th.Value(f.key); v != nil {
		return v.(*os.File)
	}
	file := f.mustOpen(log.PerThreadFile{TID: th.TID})
	if file != nil {
		th.SetValue(f.key, file)
	}
	return file
}

func (f *File) write(th *threadlocal.Thread, line []byte) {
	file := f.file(th)
	if file == nil {
		return
	}
	if _, err := file.Write(Truncate(line)); err != nil {
		warnings.Warningf("Writing to %s: %v", file.Name(), err)
	}
}

// Log implements Sink.Log.
func (f *File) Log(th *threadlocal.Thread, line []byte) {
	f.write(th, line)
}

// Error implements Sink.Error.
func (f *File) Error(th *threadlocal.Thread, line []byte) {
	f.write(th, line)
}

// AfterFork closes and forgets the per-thread file th inherited from the
// parent process. A new one is opened on next use. The shared file is kept.
func (f *File) AfterFork(th *threadlocal.Thread) {
	if f.perThread {
		th.Release(f.key)
	}
}
