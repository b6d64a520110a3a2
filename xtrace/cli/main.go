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

// Package cli is the main entrypoint for xtrace.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/xtrace/cmd"
)

var (
	// Debugging flags.
	debug          = flag.Bool("debug", false, "enable debug logging.")
	debugLog       = flag.String("debug-log", "", "additional location for xtrace's own logs. Logs always go to stderr.")
	debugLogFormat = flag.String("debug-log-format", "text", "log format: text (default) or json.")
	logFile        = flag.String("log", "", "file path where error messages are also written to.")
)

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			cmd.Fatalf("error opening log file %q: %v", *logFile, err)
		}
		cmd.ErrorLogger = f
	}

	if *debug {
		log.SetLevel(log.Debug)
	}

	emitters := log.MultiEmitter{newEmitter(*debugLogFormat, os.Stderr)}
	if *debugLog != "" {
		f, err := os.OpenFile(*debugLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			cmd.Fatalf("error opening debug log file %q: %v", *debugLog, err)
		}
		emitters = append(emitters, newEmitter(*debugLogFormat, f))
	}
	if len(emitters) == 1 {
		log.SetTarget(emitters[0])
	} else {
		log.SetTarget(&emitters)
	}

	log.Debugf("%s, %s, PID %d, PPID %d, UID %d, GID %d", runtime.Version(), runtime.GOARCH, os.Getpid(), os.Getppid(), os.Getuid(), os.Getgid())
	log.Debugf("Args: %v", os.Args)

	// Call the subcommand and pass in the wait status of the traced program.
	var ws unix.WaitStatus
	subcmdCode := subcommands.Execute(context.Background(), &ws)
	if subcmdCode == subcommands.ExitSuccess {
		log.Debugf("Exiting with status: %v", ws)
		if ws.Signaled() {
			// No good way to return it, emulate what the shell does.
			os.Exit(128 + int(ws.Signal()))
		}
		os.Exit(ws.ExitStatus())
	}
	if subcmdCode != subcommands.ExitUsageError {
		log.Warningf("Failure to execute command, err: %v", subcmdCode)
	}
	os.Exit(128)
}

// forEachCmd invokes the passed callback for each command supported by xtrace.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")

	cb(new(cmd.Run), "")
	cb(new(cmd.Status), "")

	const debugGroup = "debug"
	cb(new(cmd.Syscalls), debugGroup)
	cb(new(cmd.Hook), debugGroup)
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{Emitter: &log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{Writer: &log.Writer{Next: logFile}}
	}
	cmd.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}
