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

// Package sink writes finished trace lines to their destination: the kernel
// log, a log file shared by all threads, one log file per thread, or standard
// output.
//
// The destination is chosen once from the configuration and never changes.
package sink

import (
	"fmt"
	"time"

	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace/config"
	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// BufferSize is the size of the line buffer. A line holds at most
// BufferSize-1 bytes, leaving room for a NUL terminator when it is handed to
// the kernel.
const BufferSize = 512

// Sink is a trace line destination.
type Sink interface {
	// Log writes a trace line on behalf of th.
	Log(th *threadlocal.Thread, line []byte)

	// Error writes an error message on behalf of th.
	Error(th *threadlocal.Thread, line []byte)
}

// Opts are the collaborators of the sinks.
type Opts struct {
	// Registry holds per-thread log files.
	Registry *threadlocal.Registry

	// Abort terminates the process. It must not return.
	Abort func(message string)

	// Kprintf writes to the kernel log. Nil means /dev/kmsg.
	Kprintf func(line []byte) error
}

// New returns the sink selected by conf.
func New(conf *config.Config, opts Opts) Sink {
	switch conf.Sink() {
	case config.SinkKernel:
		k := opts.Kprintf
		if k == nil {
			k = (&Kmsg{}).Write
		}
		return NewKernel(k)
	case config.SinkFile:
		return NewFile(opts.Registry, conf.LogFile, conf.PerThreadLogFile, opts.Abort)
	default:
		return NewStdout()
	}
}

// warnings reports problems on the trace path without flooding the log.
var warnings = log.BasicRateLimitedLogger(time.Minute)

// Truncate shortens line to fit the line buffer. A trailing newline is kept.
func Truncate(line []byte) []byte {
	return truncateTo(line, BufferSize-1)
}

func truncateTo(line []byte, max int) []byte {
	if len(line) <= max {
		return line
	}
	warnings.Warningf("Trace line truncated from %d to %d bytes", len(line), max)
	if line[len(line)-1] != '\n' {
		return line[:max]
	}
	return append(line[:max-1:max-1], '\n')
}

// Printf formats a line and writes it to s.
func Printf(s Sink, th *threadlocal.Thread, format string, v ...any) {
	s.Log(th, fmt.Appendf(nil, format, v...))
}

// Errorf formats an error message and writes it to s.
func Errorf(s Sink, th *threadlocal.Thread, format string, v ...any) {
	s.Error(th, fmt.Appendf(nil, format, v...))
}
