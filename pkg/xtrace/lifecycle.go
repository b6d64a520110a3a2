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
	"gvisor.dev/xtrace/pkg/log"
	"gvisor.dev/xtrace/pkg/xtrace/config"
	"gvisor.dev/xtrace/pkg/xtrace/envp"
	"gvisor.dev/xtrace/pkg/xtrace/sink"
)

const (
	// LibraryPath is where the tracer library is installed in the traced
	// system.
	LibraryPath = "/usr/lib/darling/libxtrace.dylib"

	// InsertLibrariesEnv is the colon separated list of libraries the
	// dynamic loader loads into a new program.
	InsertLibrariesEnv = "DYLD_INSERT_LIBRARIES"
)

// ThreadExit releases the tracer state of thread tid, closing its log file.
// It is called from the thread-exit hook of the exiting thread.
func (t *Tracer) ThreadExit(tid int) {
	t.threads.Exit(tid)
}

// PostForkChild resets the tracer in a child process right after fork(2).
// parentTID is the id the forking thread had in the parent, or 0 if unknown.
//
// The forking thread keeps its nesting state under its new id, so that the
// exit of the fork call is matched. Its per-thread log file is closed and
// reopened, under the new id, on next use. The state of every other thread is
// released, since those threads do not exist in the child.
func (t *Tracer) PostForkChild(parentTID int) {
	th := t.threads.AfterFork(parentTID, t.opts.Gettid())
	if f, ok := t.sink.(*sink.File); ok {
		f.AfterFork(th)
	}
	log.Debugf("Reset tracer after fork, now %v", th)
}

// exportedConfig returns the configuration to propagate to new programs.
func (t *Tracer) exportedConfig() *config.Config {
	if t.conf != nil {
		return t.conf
	}
	if t.opts.Config != nil {
		return t.opts.Config
	}
	return config.FromProcessEnv()
}

// ExecveInject returns env, the environment of a program about to be
// executed, with the tracer configuration and library added so that the new
// program is traced the same way.
//
// Every configuration variable is set explicitly, overwriting any existing
// value in place. The tracer library is appended to DYLD_INSERT_LIBRARIES.
// Other variables are left untouched and in order.
func (t *Tracer) ExecveInject(env []string) []string {
	return InjectEnv(t.exportedConfig(), env)
}

// InjectEnv returns env with conf exported and the tracer library appended to
// DYLD_INSERT_LIBRARIES, as ExecveInject does.
func InjectEnv(conf *config.Config, env []string) []string {
	b := envp.Parse(env)
	for _, v := range conf.ToEnv() {
		b.Set(v.Key, v.Value)
	}
	b.AppendList(InsertLibrariesEnv, ":", LibraryPath)
	return b.Environ()
}
