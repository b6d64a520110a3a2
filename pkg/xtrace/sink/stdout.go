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
	"io"
	"os"

	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// Stdout writes trace lines to standard output and errors to standard error.
type Stdout struct {
	Out io.Writer
	Err io.Writer
}

// NewStdout returns a sink writing to the process standard streams.
func NewStdout() *Stdout {
	return &Stdout{Out: os.Stdout, Err: os.Stderr}
}

// Log implements Sink.Log.
func (s *Stdout) Log(_ *threadlocal.Thread, line []byte) {
	_, _ = s.Out.Write(Truncate(line))
}

// Error implements Sink.Error.
func (s *Stdout) Error(_ *threadlocal.Thread, line []byte) {
	_, _ = s.Err.Write(Truncate(line))
}
