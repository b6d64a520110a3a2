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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/xtrace/pkg/xtrace/config"
)

func TestStatusNotTraced(t *testing.T) {
	st := processStatusOf(10, "sh", []string{"PATH=/bin", "DYLD_INSERT_LIBRARIES=/usr/lib/other.dylib"}, []int{10}, os.Stat)
	if st.Traced || st.Config != nil || len(st.Threads) != 0 {
		t.Errorf("processStatusOf() = %+v, want untraced", st)
	}

	var b bytes.Buffer
	if err := st.writeText(&b); err != nil {
		t.Fatalf("writeText(): %v", err)
	}
	if !strings.Contains(b.String(), "Not traced") {
		t.Errorf("writeText() = %q, want Not traced", b.String())
	}
}

func TestStatusPerThreadFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "trace")
	if err := os.WriteFile(base+".11", []byte("[11] getpid() -> 11\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env := []string{
		"DYLD_INSERT_LIBRARIES=/usr/lib/foo.dylib:/usr/lib/darling/libxtrace.dylib",
		"XTRACE_LOG_FILE=" + base,
		"XTRACE_LOG_FILE_PER_THREAD=1",
		"XTRACE_NO_COLOR=yes",
	}
	st := processStatusOf(11, "ls", env, []int{12, 11}, os.Stat)

	want := &ProcessStatus{
		PID:    11,
		Name:   "ls",
		Traced: true,
		Config: &config.Config{NoColor: true, PerThreadLogFile: true, LogFile: base},
		Sink:   "file",
		Threads: []ThreadStatus{
			{TID: 11, LogFile: base + ".11", LogSize: 20},
			{TID: 12, LogFile: base + ".12", LogSize: -1},
		},
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("processStatusOf() mismatch (-want +got):\n%s", diff)
	}

	var b bytes.Buffer
	if err := st.writeText(&b); err != nil {
		t.Fatalf("writeText(): %v", err)
	}
	for _, s := range []string{"sink: file", "XTRACE_LOG_FILE_PER_THREAD", base + ".12"} {
		if !strings.Contains(b.String(), s) {
			t.Errorf("writeText() = %q, missing %q", b.String(), s)
		}
	}
}

func TestStatusStdout(t *testing.T) {
	env := []string{"DYLD_INSERT_LIBRARIES=/usr/lib/darling/libxtrace.dylib"}
	st := processStatusOf(5, "true", env, []int{5}, func(string) (os.FileInfo, error) {
		t.Fatalf("stat called without a log file")
		return nil, nil
	})
	if !st.Traced || st.Sink != "stdout" {
		t.Errorf("processStatusOf() = %+v, want traced to stdout", st)
	}
	if diff := cmp.Diff([]ThreadStatus{{TID: 5}}, st.Threads); diff != "" {
		t.Errorf("Threads mismatch (-want +got):\n%s", diff)
	}
}
