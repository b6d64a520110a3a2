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
	"sync"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/xtrace/threadlocal"
)

// KernelPrefix starts every line sent to the kernel log.
const KernelPrefix = "xtrace: "

// Kernel writes lines to the kernel log.
type Kernel struct {
	kprintf func(line []byte) error
}

// NewKernel returns a sink that writes through kprintf.
func NewKernel(kprintf func(line []byte) error) *Kernel {
	return &Kernel{kprintf: kprintf}
}

func (k *Kernel) write(line []byte) {
	buf := make([]byte, 0, len(KernelPrefix)+len(line))
	buf = append(buf, KernelPrefix...)
	buf = append(buf, line...)
	if err := k.kprintf(Truncate(buf)); err != nil {
		warnings.Warningf("Dropping trace lines, kernel log unavailable: %v", err)
	}
}

// Log implements Sink.Log.
func (k *Kernel) Log(_ *threadlocal.Thread, line []byte) {
	k.write(line)
}

// Error implements Sink.Error.
func (k *Kernel) Error(_ *threadlocal.Thread, line []byte) {
	k.write(line)
}

// Kmsg writes to /dev/kmsg, opening it on first use.
type Kmsg struct {
	// Path overrides /dev/kmsg.
	Path string

	once sync.Once
	fd   int
	err  error
}

// Write writes one record to the kernel log.
func (k *Kmsg) Write(line []byte) error {
	k.once.Do(func() {
		path := k.Path
		if path == "" {
			path = "/dev/kmsg"
		}
		k.fd, k.err = unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
		if k.err != nil {
			k.err = fmt.Errorf("opening %s: %w", path, k.err)
		}
	})
	if k.err != nil {
		return k.err
	}
	_, err := unix.Write(k.fd, line)
	return err
}
