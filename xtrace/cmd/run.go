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
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace"
	"gvisor.dev/xtrace/pkg/xtrace/config"
)

// Color modes accepted by the -color flag.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	configPath string
	color      string
	split      bool
	kprintf    bool
	logFile    string
	perThread  bool
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run a program with call tracing enabled"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <program> [args...] - run a program with call tracing enabled.

Tracer options are taken from the XTRACE_* variables of the environment, then
from the file named by -config, then from flags. The program and everything it
executes is traced the same way.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configPath, "config", "", "TOML file holding tracer options.")
	f.StringVar(&r.color, "color", colorAuto, "colorize trace lines: auto, always or never. auto disables colors when trace lines go to a non-terminal stdout.")
	f.BoolVar(&r.split, "split", false, "log call entries and exits on separate lines.")
	f.BoolVar(&r.kprintf, "kprintf", false, "send trace lines to the kernel log.")
	f.StringVar(&r.logFile, "log-file", "", "write trace lines to this file.")
	f.BoolVar(&r.perThread, "per-thread", false, "write one log file per thread, named <log-file>.<tid>.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	waitStatus := args[0].(*unix.WaitStatus)

	base := config.FromProcessEnv()
	if r.configPath != "" {
		loaded, err := config.Load(r.configPath)
		if err != nil {
			Fatalf("%v", err)
		}
		base = loaded
	}
	conf, err := r.apply(base, f, isTerminal(os.Stdout))
	if err != nil {
		Fatalf("%v", err)
	}
	conf.Log()

	if conf.Sink() == config.SinkFile {
		unlock, err := lockLogFile(conf.LogFile)
		if err != nil {
			Fatalf("%v", err)
		}
		defer unlock()
	}

	env := xtrace.InjectEnv(conf, os.Environ())
	ws, err := runTraced(ctx, f.Args(), env)
	if err != nil {
		Fatalf("running %q: %v", f.Arg(0), err)
	}
	*waitStatus = ws
	return subcommands.ExitSuccess
}

// apply returns a copy of base with the flags explicitly set in f applied.
// terminal tells whether standard output is a terminal.
func (r *Run) apply(base *config.Config, f *flag.FlagSet, terminal bool) (*config.Config, error) {
	conf := base.Copy()
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "split":
			conf.SplitEntryAndExit = r.split
		case "kprintf":
			conf.Kprintf = r.kprintf
		case "log-file":
			conf.LogFile = r.logFile
		case "per-thread":
			conf.PerThreadLogFile = r.perThread
		}
	})

	switch r.color {
	case colorAlways:
		conf.NoColor = false
	case colorNever:
		conf.NoColor = true
	case colorAuto:
		if conf.Sink() == config.SinkStdout && !terminal {
			conf.NoColor = true
		}
	default:
		return nil, fmt.Errorf("invalid -color %q, must be %q, %q or %q", r.color, colorAuto, colorAlways, colorNever)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// lockLogFile takes an exclusive lock next to the log file so that two trace
// sessions do not interleave their lines in it. It returns the unlock
// function.
func lockLogFile(path string) (func() error, error) {
	l := flock.NewFlock(path + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %q: %w", l.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("another trace session is writing to %q", path)
	}
	return l.Unlock, nil
}

// runTraced runs argv with env, forwarding termination signals to it, and
// returns its wait status.
func runTraced(ctx context.Context, argv, env []string) (unix.WaitStatus, error) {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Env = env
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Start(); err != nil {
		return 0, err
	}
	log.Infof("Started %q, PID %d", argv[0], c.Process.Pid)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGINT, unix.SIGTERM, unix.SIGHUP, unix.SIGQUIT)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-sigs:
				log.Debugf("Forwarding %v to PID %d", s, c.Process.Pid)
				_ = c.Process.Signal(s)
			case <-done:
				return
			}
		}
	}()
	err := c.Wait()
	signal.Stop(sigs)
	close(done)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return 0, err
	}
	ws, ok := c.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, fmt.Errorf("unexpected process state %T", c.ProcessState.Sys())
	}
	return unix.WaitStatus(ws), nil
}
