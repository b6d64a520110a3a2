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

package abi

// Darwin open(2) access modes.
const (
	DarwinORdOnly  = 0x0
	DarwinOWrOnly  = 0x1
	DarwinORdWr    = 0x2
	DarwinOAccMode = 0x3
)

// DarwinOpenMode represents the access mode of a Darwin open(2).
var DarwinOpenMode = ValueSet{
	DarwinORdOnly: "O_RDONLY",
	DarwinOWrOnly: "O_WRONLY",
	DarwinORdWr:   "O_RDWR",
}

// DarwinOpenFlagSet is the set of Darwin open(2) flags, excluding the access
// mode.
var DarwinOpenFlagSet = FlagSet{
	{Flag: 0x4, Name: "O_NONBLOCK"},
	{Flag: 0x8, Name: "O_APPEND"},
	{Flag: 0x10, Name: "O_SHLOCK"},
	{Flag: 0x20, Name: "O_EXLOCK"},
	{Flag: 0x40, Name: "O_ASYNC"},
	{Flag: 0x80, Name: "O_FSYNC"},
	{Flag: 0x100, Name: "O_NOFOLLOW"},
	{Flag: 0x200, Name: "O_CREAT"},
	{Flag: 0x400, Name: "O_TRUNC"},
	{Flag: 0x800, Name: "O_EXCL"},
	{Flag: 0x8000, Name: "O_EVTONLY"},
	{Flag: 0x20000, Name: "O_NOCTTY"},
	{Flag: 0x100000, Name: "O_DIRECTORY"},
	{Flag: 0x200000, Name: "O_SYMLINK"},
	{Flag: 0x400000, Name: "O_DSYNC"},
	{Flag: 0x1000000, Name: "O_CLOEXEC"},
}

// DarwinOpenFlags formats the flags argument of a Darwin open(2).
func DarwinOpenFlags(val uint64) string {
	s := DarwinOpenMode.Parse(val & DarwinOAccMode)
	if rest := val &^ DarwinOAccMode; rest != 0 {
		s += "|" + DarwinOpenFlagSet.Parse(rest)
	}
	return s
}

// DarwinProtFlagSet is the set of mmap(2)/mprotect(2) protections.
var DarwinProtFlagSet = FlagSet{
	{Flag: 0x1, Name: "PROT_READ"},
	{Flag: 0x2, Name: "PROT_WRITE"},
	{Flag: 0x4, Name: "PROT_EXEC"},
}

// DarwinProt formats a memory protection, which may be PROT_NONE.
func DarwinProt(val uint64) string {
	if val == 0 {
		return "PROT_NONE"
	}
	return DarwinProtFlagSet.Parse(val)
}

// DarwinMmapFlagSet is the set of Darwin mmap(2) flags.
var DarwinMmapFlagSet = FlagSet{
	{Flag: 0x1, Name: "MAP_SHARED"},
	{Flag: 0x2, Name: "MAP_PRIVATE"},
	{Flag: 0x10, Name: "MAP_FIXED"},
	{Flag: 0x20, Name: "MAP_RENAME"},
	{Flag: 0x40, Name: "MAP_NORESERVE"},
	{Flag: 0x200, Name: "MAP_NOCACHE"},
	{Flag: 0x400, Name: "MAP_NOEXTEND"},
	{Flag: 0x800, Name: "MAP_JIT"},
	{Flag: 0x1000, Name: "MAP_ANON"},
}

// DarwinSignals names the Darwin signals.
var DarwinSignals = ValueSet{
	1:  "SIGHUP",
	2:  "SIGINT",
	3:  "SIGQUIT",
	4:  "SIGILL",
	5:  "SIGTRAP",
	6:  "SIGABRT",
	7:  "SIGEMT",
	8:  "SIGFPE",
	9:  "SIGKILL",
	10: "SIGBUS",
	11: "SIGSEGV",
	12: "SIGSYS",
	13: "SIGPIPE",
	14: "SIGALRM",
	15: "SIGTERM",
	16: "SIGURG",
	17: "SIGSTOP",
	18: "SIGTSTP",
	19: "SIGCONT",
	20: "SIGCHLD",
	21: "SIGTTIN",
	22: "SIGTTOU",
	23: "SIGIO",
	24: "SIGXCPU",
	25: "SIGXFSZ",
	26: "SIGVTALRM",
	27: "SIGPROF",
	28: "SIGWINCH",
	29: "SIGINFO",
	30: "SIGUSR1",
	31: "SIGUSR2",
}

// KernReturn names Mach kern_return_t and mach_msg_return_t values.
var KernReturn = ValueSet{
	0:          "KERN_SUCCESS",
	1:          "KERN_INVALID_ADDRESS",
	2:          "KERN_PROTECTION_FAILURE",
	3:          "KERN_NO_SPACE",
	4:          "KERN_INVALID_ARGUMENT",
	5:          "KERN_FAILURE",
	6:          "KERN_RESOURCE_SHORTAGE",
	7:          "KERN_NOT_RECEIVER",
	8:          "KERN_NO_ACCESS",
	9:          "KERN_MEMORY_FAILURE",
	10:         "KERN_MEMORY_ERROR",
	11:         "KERN_ALREADY_IN_SET",
	12:         "KERN_NOT_IN_SET",
	13:         "KERN_NAME_EXISTS",
	14:         "KERN_ABORTED",
	15:         "KERN_INVALID_NAME",
	16:         "KERN_INVALID_TASK",
	17:         "KERN_INVALID_RIGHT",
	18:         "KERN_INVALID_VALUE",
	19:         "KERN_UREFS_OVERFLOW",
	20:         "KERN_INVALID_CAPABILITY",
	21:         "KERN_RIGHT_EXISTS",
	22:         "KERN_INVALID_HOST",
	23:         "KERN_MEMORY_PRESENT",
	0x10000002: "MACH_SEND_INVALID_DATA",
	0x10000003: "MACH_SEND_INVALID_DEST",
	0x10000004: "MACH_SEND_TIMED_OUT",
	0x10000007: "MACH_SEND_INTERRUPTED",
	0x10000008: "MACH_SEND_MSG_TOO_SMALL",
	0x10000009: "MACH_SEND_INVALID_REPLY",
	0x1000000a: "MACH_SEND_INVALID_RIGHT",
	0x1000000b: "MACH_SEND_INVALID_NOTIFY",
	0x1000000c: "MACH_SEND_INVALID_MEMORY",
	0x1000000d: "MACH_SEND_NO_BUFFER",
	0x1000000e: "MACH_SEND_TOO_LARGE",
	0x10000010: "MACH_SEND_INVALID_HEADER",
	0x10004002: "MACH_RCV_INVALID_NAME",
	0x10004003: "MACH_RCV_TIMED_OUT",
	0x10004004: "MACH_RCV_TOO_LARGE",
	0x10004005: "MACH_RCV_INTERRUPTED",
	0x10004006: "MACH_RCV_PORT_CHANGED",
	0x10004008: "MACH_RCV_INVALID_DATA",
	0x10004009: "MACH_RCV_PORT_DIED",
}
