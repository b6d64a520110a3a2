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
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"gvisor.dev/xtrace/pkg/xtrace/patch"
)

// Hook implements subcommands.Command for the "hook" command.
type Hook struct {
	arch string
	jump bool
}

// Name implements subcommands.Command.Name.
func (*Hook) Name() string {
	return "hook"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Hook) Synopsis() string {
	return "encode or decode the instructions patched into hook slots"
}

// Usage implements subcommands.Command.Usage.
func (*Hook) Usage() string {
	return `hook [flags] encode <address> - print the hook calling the handler at address.
hook [flags] decode <bytes...> - print the handler a hook calls.

Bytes are hexadecimal and may be split across arguments, e.g.
"49 ba 00 10 00 00 00 00 00 00 41 ff d2".
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (h *Hook) SetFlags(f *flag.FlagSet) {
	f.StringVar(&h.arch, "arch", runtime.GOARCH, "instruction set: amd64, 386 or arm64.")
	f.BoolVar(&h.jump, "jump", false, "encode a tail jump instead of a call.")
}

// Execute implements subcommands.Command.Execute.
func (h *Hook) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := patch.ParseArch(h.arch)
	if err != nil {
		Fatalf("%v", err)
	}

	switch f.Arg(0) {
	case "encode":
		if f.NArg() != 2 {
			f.Usage()
			return subcommands.ExitUsageError
		}
		err = h.encode(os.Stdout, a, f.Arg(1))
	case "decode":
		err = decodeHook(os.Stdout, a, f.Args()[1:])
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err != nil {
		Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

func (h *Hook) encode(w io.Writer, a patch.Arch, addr string) error {
	fn, err := strconv.ParseUint(addr, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if a == patch.I386 && fn > 0xffffffff {
		return fmt.Errorf("address %#x does not fit in 32 bits", fn)
	}
	_, err = fmt.Fprintf(w, "% x\n", patch.Encode(a, fn, h.jump))
	return err
}

func decodeHook(w io.Writer, a patch.Arch, args []string) error {
	s := strings.Join(args, "")
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hook bytes: %w", err)
	}
	fn, jump, err := patch.Decode(a, b)
	if err != nil {
		return err
	}
	op := "call"
	if jump {
		op = "jump"
	}
	_, err = fmt.Fprintf(w, "%s %#x\n", op, fn)
	return err
}
