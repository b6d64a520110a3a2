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
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/log"
)

// Abort logs message, prints it to stderr and kills the process with SIGABRT.
// Tracing cannot be made safe again once it has half failed, so there is no
// recovery.
func Abort(message string) {
	log.Warningf("Aborting: %s", message)
	fmt.Fprintf(os.Stderr, "xtrace: %s\n", message)
	_ = unix.Kill(unix.Getpid(), unix.SIGABRT)
	// SIGABRT may be blocked or handled.
	os.Exit(128 + int(unix.SIGABRT))
}
