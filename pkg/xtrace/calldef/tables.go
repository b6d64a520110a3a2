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

package calldef

// MachTraps describes the Mach traps, indexed by trap number.
var MachTraps = &Table{
	Type: "mach",
	Calls: map[int]Definition{
		10: makeDefinition("_kernelrpc_mach_vm_allocate_trap", RetKern, Port, Hex, Hex, Hex),
		12: makeDefinition("_kernelrpc_mach_vm_deallocate_trap", RetKern, Port, Hex, Hex),
		14: makeDefinition("_kernelrpc_mach_vm_protect_trap", RetKern, Port, Hex, Hex, Int, Prot),
		15: makeDefinition("_kernelrpc_mach_vm_map_trap", RetKern, Port, Hex, Hex, Hex, Hex, Prot),
		16: makeDefinition("_kernelrpc_mach_port_allocate_trap", RetKern, Port, Int, Hex),
		18: makeDefinition("_kernelrpc_mach_port_deallocate_trap", RetKern, Port, Port),
		19: makeDefinition("_kernelrpc_mach_port_mod_refs_trap", RetKern, Port, Port, Int, Int),
		21: makeDefinition("_kernelrpc_mach_port_insert_right_trap", RetKern, Port, Port, Port, Int),
		22: makeDefinition("_kernelrpc_mach_port_insert_member_trap", RetKern, Port, Port, Port),
		23: makeDefinition("_kernelrpc_mach_port_extract_member_trap", RetKern, Port, Port, Port),
		24: makeDefinition("_kernelrpc_mach_port_construct_trap", RetKern, Port, Hex, Hex, Hex),
		25: makeDefinition("_kernelrpc_mach_port_destruct_trap", RetKern, Port, Port, Int, Hex),
		26: makeDefinition("mach_reply_port", RetPort),
		27: makeDefinition("thread_self_trap", RetPort),
		28: makeDefinition("task_self_trap", RetPort),
		29: makeDefinition("host_self_trap", RetPort),
		31: makeDefinition("mach_msg_trap", RetKern, Hex, Hex, Int, Int, Port, Int, Port),
		32: makeDefinition("mach_msg_overwrite_trap", RetKern, Hex, Hex, Int, Int, Port, Int, Port, Hex),
		33: makeDefinition("semaphore_signal_trap", RetKern, Port),
		34: makeDefinition("semaphore_signal_all_trap", RetKern, Port),
		35: makeDefinition("semaphore_signal_thread_trap", RetKern, Port, Port),
		36: makeDefinition("semaphore_wait_trap", RetKern, Port),
		37: makeDefinition("semaphore_wait_signal_trap", RetKern, Port, Port),
		38: makeDefinition("semaphore_timedwait_trap", RetKern, Port, Int, Int),
		39: makeDefinition("semaphore_timedwait_signal_trap", RetKern, Port, Port, Int, Int),
		41: makeDefinition("_kernelrpc_mach_port_guard_trap", RetKern, Port, Port, Hex, Int),
		42: makeDefinition("_kernelrpc_mach_port_unguard_trap", RetKern, Port, Port, Hex),
		44: makeDefinition("task_name_for_pid", RetKern, Port, Int, Hex),
		45: makeDefinition("task_for_pid", RetKern, Port, Int, Hex),
		46: makeDefinition("pid_for_task", RetKern, Port, Hex),
		48: makeDefinition("macx_swapon", RetInt, Hex, Int, Int, Int),
		49: makeDefinition("macx_swapoff", RetInt, Hex, Int),
		51: makeDefinition("macx_triggers", RetInt, Int, Int, Int, Port),
		52: makeDefinition("macx_backing_store_suspend", RetInt, Int),
		53: makeDefinition("macx_backing_store_recovery", RetInt, Int),
		58: makeDefinition("pfz_exit", RetHex),
		59: makeDefinition("swtch_pri", RetInt, Int),
		60: makeDefinition("swtch", RetInt),
		61: makeDefinition("thread_switch", RetKern, Port, Int, Int),
		62: makeDefinition("clock_sleep_trap", RetKern, Port, Int, Int, Int, Hex),
		89: makeDefinition("mach_timebase_info_trap", RetKern, Hex),
		90: makeDefinition("mach_wait_until_trap", RetKern, Hex),
		91: makeDefinition("mk_timer_create_trap", RetPort),
		92: makeDefinition("mk_timer_destroy_trap", RetKern, Port),
		93: makeDefinition("mk_timer_arm_trap", RetKern, Port, Hex),
		94: makeDefinition("mk_timer_cancel_trap", RetKern, Port, Hex),
	},
}

// BSDSyscalls describes the BSD system calls, indexed by syscall number.
var BSDSyscalls = &Table{
	Type: "bsd",
	Calls: map[int]Definition{
		1:   makeDefinition("exit", RetInt, Int),
		2:   makeDefinition("fork", RetInt),
		3:   makeDefinition("read", RetInt, FD, Hex, Int),
		4:   makeDefinition("write", RetInt, FD, Hex, Int),
		5:   makeDefinition("open", RetInt, Hex, OpenFlags, Mode),
		6:   makeDefinition("close", RetInt, FD),
		7:   makeDefinition("wait4", RetInt, Int, Hex, Hex, Hex),
		9:   makeDefinition("link", RetInt, Hex, Hex),
		10:  makeDefinition("unlink", RetInt, Hex),
		12:  makeDefinition("chdir", RetInt, Hex),
		13:  makeDefinition("fchdir", RetInt, FD),
		15:  makeDefinition("chmod", RetInt, Hex, Mode),
		16:  makeDefinition("chown", RetInt, Hex, Int, Int),
		20:  makeDefinition("getpid", RetInt),
		23:  makeDefinition("setuid", RetInt, Int),
		24:  makeDefinition("getuid", RetInt),
		25:  makeDefinition("geteuid", RetInt),
		33:  makeDefinition("access", RetInt, Hex, Oct),
		37:  makeDefinition("kill", RetInt, Int, Signal, Int),
		39:  makeDefinition("getppid", RetInt),
		41:  makeDefinition("dup", RetInt, FD),
		42:  makeDefinition("pipe", RetInt),
		43:  makeDefinition("getegid", RetInt),
		46:  makeDefinition("sigaction", RetInt, Signal, Hex, Hex),
		47:  makeDefinition("getgid", RetInt),
		48:  makeDefinition("sigprocmask", RetInt, Int, Hex, Hex),
		53:  makeDefinition("sigaltstack", RetInt, Hex, Hex),
		54:  makeDefinition("ioctl", RetInt, FD, Hex, Hex),
		57:  makeDefinition("symlink", RetInt, Hex, Hex),
		58:  makeDefinition("readlink", RetInt, Hex, Hex, Int),
		59:  makeDefinition("execve", RetInt, Hex, Hex, Hex),
		60:  makeDefinition("umask", RetInt, Mode),
		73:  makeDefinition("munmap", RetInt, Hex, Hex),
		74:  makeDefinition("mprotect", RetInt, Hex, Hex, Prot),
		75:  makeDefinition("madvise", RetInt, Hex, Hex, Int),
		90:  makeDefinition("dup2", RetInt, FD, FD),
		92:  makeDefinition("fcntl", RetInt, FD, Int, Hex),
		93:  makeDefinition("select", RetInt, Int, Hex, Hex, Hex, Hex),
		95:  makeDefinition("fsync", RetInt, FD),
		97:  makeDefinition("socket", RetInt, Int, Int, Int),
		98:  makeDefinition("connect", RetInt, FD, Hex, Int),
		104: makeDefinition("bind", RetInt, FD, Hex, Int),
		106: makeDefinition("listen", RetInt, FD, Int),
		116: makeDefinition("gettimeofday", RetInt, Hex, Hex),
		121: makeDefinition("writev", RetInt, FD, Hex, Int),
		128: makeDefinition("rename", RetInt, Hex, Hex),
		133: makeDefinition("sendto", RetInt, FD, Hex, Int, Hex, Hex, Int),
		136: makeDefinition("mkdir", RetInt, Hex, Mode),
		137: makeDefinition("rmdir", RetInt, Hex),
		153: makeDefinition("pread", RetInt, FD, Hex, Int, Int),
		154: makeDefinition("pwrite", RetInt, FD, Hex, Int, Int),
		194: makeDefinition("getrlimit", RetInt, Int, Hex),
		195: makeDefinition("setrlimit", RetInt, Int, Hex),
		197: makeDefinition("mmap", RetPtr, Hex, Hex, Prot, MmapFlags, FD, Hex),
		199: makeDefinition("lseek", RetInt, FD, Int, Int),
		202: makeDefinition("sysctl", RetInt, Hex, Int, Hex, Hex, Hex, Int),
		266: makeDefinition("shm_open", RetInt, Hex, OpenFlags, Mode),
		286: makeDefinition("gettid", RetInt, Hex, Hex),
		327: makeDefinition("issetugid", RetInt),
		328: makeDefinition("__pthread_kill", RetInt, Port, Signal),
		329: makeDefinition("__pthread_sigmask", RetInt, Int, Hex, Hex),
		331: makeDefinition("__disable_threadsignal", RetInt, Int),
		338: makeDefinition("stat64", RetInt, Hex, Hex),
		339: makeDefinition("fstat64", RetInt, FD, Hex),
		340: makeDefinition("lstat64", RetInt, Hex, Hex),
		344: makeDefinition("getdirentries64", RetInt, FD, Hex, Int, Hex),
		360: makeDefinition("bsdthread_create", RetPtr, Hex, Hex, Hex, Hex, Hex),
		361: makeDefinition("bsdthread_terminate", RetInt, Hex, Hex, Port, Port),
		366: makeDefinition("bsdthread_register", RetInt, Hex, Hex, Int, Hex, Hex, Hex),
		372: makeDefinition("thread_selfid", RetInt),
		396: makeDefinition("read_nocancel", RetInt, FD, Hex, Int),
		397: makeDefinition("write_nocancel", RetInt, FD, Hex, Int),
		398: makeDefinition("open_nocancel", RetInt, Hex, OpenFlags, Mode),
		399: makeDefinition("close_nocancel", RetInt, FD),
		463: makeDefinition("openat", RetInt, FD, Hex, OpenFlags, Mode),
		464: makeDefinition("openat_nocancel", RetInt, FD, Hex, OpenFlags, Mode),
		466: makeDefinition("fstatat64", RetInt, FD, Hex, Hex, Hex),
		472: makeDefinition("unlinkat", RetInt, FD, Hex, Hex),
		474: makeDefinition("mkdirat", RetInt, FD, Hex, Mode),
		500: makeDefinition("getentropy", RetInt, Hex, Int),
	},
}
