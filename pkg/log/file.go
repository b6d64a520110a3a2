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

package log

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileOpts contains options for creating a log file.
type FileOpts interface {
	// Build constructs the log file path based on the given base path.
	Build(base string) string
}

// PlainFile is a FileOpts that uses the base path unchanged.
type PlainFile struct{}

// Build implements FileOpts.Build.
func (PlainFile) Build(base string) string {
	return base
}

// PerThreadFile is a FileOpts that suffixes the base path with a kernel thread
// id, e.g. "/tmp/trace.log.4321".
type PerThreadFile struct {
	TID int
}

// Build implements FileOpts.Build.
func (p PerThreadFile) Build(base string) string {
	return fmt.Sprintf("%s.%d", base, p.TID)
}

// OpenFile opens a log file using the specified flags. It uses `opts` to
// construct the log file path based on the given base path. The parent
// directory must already exist: a trace session never creates directories on
// behalf of the traced program. Returned files are close-on-exec.
func OpenFile(base string, flags int, opts FileOpts) (*os.File, error) {
	if len(base) == 0 {
		return nil, nil
	}

	logPath := opts.Build(base)

	if dir := filepath.Dir(logPath); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("error opening dir %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file %q: %w", logPath, err)
	}
	return f, nil
}
