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
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shirou/gopsutil/v4/process"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace"
	"gvisor.dev/xtrace/pkg/xtrace/config"
	"gvisor.dev/xtrace/pkg/xtrace/envp"
)

// Status implements subcommands.Command for the "status" command.
type Status struct {
	format string
}

// ProcessStatus is the tracing state of a process.
type ProcessStatus struct {
	PID    int            `json:"pid"`
	Name   string         `json:"name"`
	Traced bool           `json:"traced"`
	Config *config.Config `json:"config,omitempty"`
	Sink   string         `json:"sink,omitempty"`

	Threads []ThreadStatus `json:"threads,omitempty"`
}

// ThreadStatus is the tracing state of one thread.
type ThreadStatus struct {
	TID int `json:"tid"`

	// LogFile is the file trace lines of the thread go to, if any.
	LogFile string `json:"log_file,omitempty"`

	// LogSize is the size of LogFile, or -1 if it does not exist yet.
	LogSize int64 `json:"log_size"`
}

// Name implements subcommands.Command.Name.
func (*Status) Name() string {
	return "status"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Status) Synopsis() string {
	return "show whether a process is traced and where its trace lines go"
}

// Usage implements subcommands.Command.Usage.
func (*Status) Usage() string {
	return `status [flags] <pid> - show whether a process is traced and where its trace lines go.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Status) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.format, "format", "text", "output format: text (default) or json.")
}

// Execute implements subcommands.Command.Execute.
func (s *Status) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	pid, err := strconv.Atoi(f.Arg(0))
	if err != nil {
		Fatalf("invalid pid %q: %v", f.Arg(0), err)
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		Fatalf("looking up process %d: %v", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		log.Warningf("Cannot read name of process %d: %v", pid, err)
	}
	env, err := p.EnvironWithContext(ctx)
	if err != nil {
		Fatalf("reading environment of process %d: %v", pid, err)
	}
	threads, err := p.ThreadsWithContext(ctx)
	if err != nil {
		Fatalf("listing threads of process %d: %v", pid, err)
	}
	tids := make([]int, 0, len(threads))
	for tid := range threads {
		tids = append(tids, int(tid))
	}

	st := processStatusOf(pid, name, env, tids, os.Stat)
	switch s.format {
	case "text":
		err = st.writeText(os.Stdout)
	case "json":
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		err = e.Encode(st)
	default:
		Fatalf("invalid format %q, must be 'text' or 'json'", s.format)
	}
	if err != nil {
		Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// processStatusOf computes the status of process pid from its environment.
// The environment is what the process started with, so it reflects the
// configuration the tracer read at setup.
func processStatusOf(pid int, name string, env []string, tids []int, stat func(string) (os.FileInfo, error)) *ProcessStatus {
	b := envp.Parse(env)
	st := &ProcessStatus{PID: pid, Name: name}

	libs, _ := b.Get(xtrace.InsertLibrariesEnv)
	for _, lib := range strings.Split(libs, ":") {
		if lib == xtrace.LibraryPath {
			st.Traced = true
			break
		}
	}
	if !st.Traced {
		return st
	}

	conf := config.FromEnv(b.Get)
	st.Config = conf
	st.Sink = conf.Sink().String()

	sort.Ints(tids)
	for _, tid := range tids {
		ts := ThreadStatus{TID: tid}
		if conf.Sink() == config.SinkFile {
			ts.LogFile = conf.LogFile
			if conf.PerThreadLogFile {
				ts.LogFile = log.PerThreadFile{TID: tid}.Build(conf.LogFile)
			}
			ts.LogSize = -1
			if fi, err := stat(ts.LogFile); err == nil {
				ts.LogSize = fi.Size()
			}
		}
		st.Threads = append(st.Threads, ts)
	}
	return st
}

func (st *ProcessStatus) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Process %d (%s)\n", st.PID, st.Name); err != nil {
		return err
	}
	if !st.Traced {
		_, err := fmt.Fprintf(w, "Not traced: %s not in %s\n", xtrace.LibraryPath, xtrace.InsertLibrariesEnv)
		return err
	}
	if _, err := fmt.Fprintf(w, "Traced, sink: %s\n\n", st.Sink); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, v := range st.Config.ToEnv() {
		if _, err := fmt.Fprintf(tw, "%s\t%q\n", v.Key, v.Value); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "TID\tLOG FILE\tSIZE\n"); err != nil {
		return err
	}
	for _, ts := range st.Threads {
		size := "-"
		if ts.LogFile != "" && ts.LogSize >= 0 {
			size = strconv.FormatInt(ts.LogSize, 10)
		}
		logFile := ts.LogFile
		if logFile == "" {
			logFile = "-"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\n", ts.TID, logFile, size); err != nil {
			return err
		}
	}
	return tw.Flush()
}
