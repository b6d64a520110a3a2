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

// Package errno translates error numbers between Darwin and Linux.
//
// Translation is best effort. A number with no known counterpart is returned
// unchanged, on the assumption that a plausible value is more useful to the
// caller than a failure. Numbers past the end of the table translate to 0.
package errno

import (
	"fmt"

	"golang.org/x/sys/unix"
	"gvisor.dev/xtrace/pkg/abi"
)

// tableSize bounds the translation tables. The last slot is never used.
const tableSize = 140

// Darwin error numbers that differ from Linux or have no Linux equivalent.
const (
	DarwinEDEADLK         = 11
	DarwinEAGAIN          = 35
	DarwinEINPROGRESS     = 36
	DarwinEALREADY        = 37
	DarwinENOTSOCK        = 38
	DarwinEDESTADDRREQ    = 39
	DarwinEMSGSIZE        = 40
	DarwinEPROTOTYPE      = 41
	DarwinENOPROTOOPT     = 42
	DarwinEPROTONOSUPPORT = 43
	DarwinESOCKTNOSUPPORT = 44
	DarwinENOTSUP         = 45
	DarwinEPFNOSUPPORT    = 46
	DarwinEAFNOSUPPORT    = 47
	DarwinEADDRINUSE      = 48
	DarwinEADDRNOTAVAIL   = 49
	DarwinENETDOWN        = 50
	DarwinENETUNREACH     = 51
	DarwinENETRESET       = 52
	DarwinECONNABORTED    = 53
	DarwinECONNRESET      = 54
	DarwinENOBUFS         = 55
	DarwinEISCONN         = 56
	DarwinENOTCONN        = 57
	DarwinESHUTDOWN       = 58
	DarwinETOOMANYREFS    = 59
	DarwinETIMEDOUT       = 60
	DarwinECONNREFUSED    = 61
	DarwinELOOP           = 62
	DarwinENAMETOOLONG    = 63
	DarwinEHOSTDOWN       = 64
	DarwinEHOSTUNREACH    = 65
	DarwinENOTEMPTY       = 66
	DarwinEPROCLIM        = 67
	DarwinEUSERS          = 68
	DarwinEDQUOT          = 69
	DarwinESTALE          = 70
	DarwinEREMOTE         = 71
	DarwinEBADRPC         = 72
	DarwinERPCMISMATCH    = 73
	DarwinEPROGUNAVAIL    = 74
	DarwinEPROGMISMATCH   = 75
	DarwinEPROCUNAVAIL    = 76
	DarwinENOLCK          = 77
	DarwinENOSYS          = 78
	DarwinEFTYPE          = 79
	DarwinEAUTH           = 80
	DarwinENEEDAUTH       = 81
	DarwinEPWROFF         = 82
	DarwinEDEVERR         = 83
	DarwinEOVERFLOW       = 84
	DarwinEBADEXEC        = 85
	DarwinEBADARCH        = 86
	DarwinESHLIBVERS      = 87
	DarwinEBADMACHO       = 88
	DarwinECANCELED       = 89
	DarwinEIDRM           = 90
	DarwinENOMSG          = 91
	DarwinEILSEQ          = 92
	DarwinENOATTR         = 93
	DarwinEBADMSG         = 94
	DarwinEMULTIHOP       = 95
	DarwinENODATA         = 96
	DarwinENOLINK         = 97
	DarwinENOSR           = 98
	DarwinENOSTR          = 99
	DarwinEPROTO          = 100
	DarwinETIME           = 101
	DarwinEOPNOTSUPP      = 102
	DarwinENOPOLICY       = 103
	DarwinENOTRECOVERABLE = 104
	DarwinEOWNERDEAD      = 105
	DarwinEQFULL          = 106
)

// pairs lists Darwin numbers and the Linux number they correspond to. Numbers
// 1 through 34 other than EDEADLK are the same on both systems. When several
// Darwin numbers share a Linux number, the first listed wins for the Linux to
// Darwin direction.
var pairs = []struct {
	darwin int
	linux  unix.Errno
}{
	{DarwinEDEADLK, unix.EDEADLK},
	{DarwinEAGAIN, unix.EAGAIN},
	{DarwinEINPROGRESS, unix.EINPROGRESS},
	{DarwinEALREADY, unix.EALREADY},
	{DarwinENOTSOCK, unix.ENOTSOCK},
	{DarwinEDESTADDRREQ, unix.EDESTADDRREQ},
	{DarwinEMSGSIZE, unix.EMSGSIZE},
	{DarwinEPROTOTYPE, unix.EPROTOTYPE},
	{DarwinENOPROTOOPT, unix.ENOPROTOOPT},
	{DarwinEPROTONOSUPPORT, unix.EPROTONOSUPPORT},
	{DarwinESOCKTNOSUPPORT, unix.ESOCKTNOSUPPORT},
	{DarwinEOPNOTSUPP, unix.EOPNOTSUPP},
	{DarwinENOTSUP, unix.ENOTSUP},
	{DarwinEPFNOSUPPORT, unix.EPFNOSUPPORT},
	{DarwinEAFNOSUPPORT, unix.EAFNOSUPPORT},
	{DarwinEADDRINUSE, unix.EADDRINUSE},
	{DarwinEADDRNOTAVAIL, unix.EADDRNOTAVAIL},
	{DarwinENETDOWN, unix.ENETDOWN},
	{DarwinENETUNREACH, unix.ENETUNREACH},
	{DarwinENETRESET, unix.ENETRESET},
	{DarwinECONNABORTED, unix.ECONNABORTED},
	{DarwinECONNRESET, unix.ECONNRESET},
	{DarwinENOBUFS, unix.ENOBUFS},
	{DarwinEISCONN, unix.EISCONN},
	{DarwinENOTCONN, unix.ENOTCONN},
	{DarwinESHUTDOWN, unix.ESHUTDOWN},
	{DarwinETOOMANYREFS, unix.ETOOMANYREFS},
	{DarwinETIMEDOUT, unix.ETIMEDOUT},
	{DarwinECONNREFUSED, unix.ECONNREFUSED},
	{DarwinELOOP, unix.ELOOP},
	{DarwinENAMETOOLONG, unix.ENAMETOOLONG},
	{DarwinEHOSTDOWN, unix.EHOSTDOWN},
	{DarwinEHOSTUNREACH, unix.EHOSTUNREACH},
	{DarwinENOTEMPTY, unix.ENOTEMPTY},
	{DarwinEUSERS, unix.EUSERS},
	{DarwinEDQUOT, unix.EDQUOT},
	{DarwinESTALE, unix.ESTALE},
	{DarwinEREMOTE, unix.EREMOTE},
	{DarwinENOLCK, unix.ENOLCK},
	{DarwinENOSYS, unix.ENOSYS},
	{DarwinEOVERFLOW, unix.EOVERFLOW},
	{DarwinECANCELED, unix.ECANCELED},
	{DarwinEIDRM, unix.EIDRM},
	{DarwinENOMSG, unix.ENOMSG},
	{DarwinEILSEQ, unix.EILSEQ},
	{DarwinENODATA, unix.ENODATA},
	{DarwinENOATTR, unix.ENODATA},
	{DarwinEBADMSG, unix.EBADMSG},
	{DarwinEMULTIHOP, unix.EMULTIHOP},
	{DarwinENOLINK, unix.ENOLINK},
	{DarwinENOSR, unix.ENOSR},
	{DarwinENOSTR, unix.ENOSTR},
	{DarwinEPROTO, unix.EPROTO},
	{DarwinETIME, unix.ETIME},
	{DarwinENOTRECOVERABLE, unix.ENOTRECOVERABLE},
	{DarwinEOWNERDEAD, unix.EOWNERDEAD},
}

var (
	darwinToLinux [tableSize]int
	linuxToDarwin [tableSize]int
)

func init() {
	for _, p := range pairs {
		darwinToLinux[p.darwin] = int(p.linux)
		if linuxToDarwin[p.linux] == 0 {
			linuxToDarwin[p.linux] = p.darwin
		}
	}

	// Mach-O loader failures have no Linux equivalent and are reported
	// as ENOEXEC. ENOEXEC itself maps back to ENOEXEC.
	darwinToLinux[DarwinEBADEXEC] = int(unix.ENOEXEC)
	darwinToLinux[DarwinEBADARCH] = int(unix.ENOEXEC)
	darwinToLinux[DarwinEBADMACHO] = int(unix.ENOEXEC)
}

func doMap(err int, table *[tableSize]int) int {
	if err < 0 || err >= tableSize-1 {
		return 0
	}
	if e := table[err]; e != 0 {
		return e
	}
	return err
}

// DarwinToLinux translates a Darwin error number to Linux.
func DarwinToLinux(err int) int {
	return doMap(err, &darwinToLinux)
}

// LinuxToDarwin translates a Linux error number to Darwin.
func LinuxToDarwin(err int) int {
	return doMap(err, &linuxToDarwin)
}

// Errno returns the unix.Errno for a Darwin error number.
func Errno(darwin int) unix.Errno {
	return unix.Errno(DarwinToLinux(darwin))
}

// Names names the Darwin error numbers.
var Names = abi.ValueSet{
	1:                     "EPERM",
	2:                     "ENOENT",
	3:                     "ESRCH",
	4:                     "EINTR",
	5:                     "EIO",
	6:                     "ENXIO",
	7:                     "E2BIG",
	8:                     "ENOEXEC",
	9:                     "EBADF",
	10:                    "ECHILD",
	DarwinEDEADLK:         "EDEADLK",
	12:                    "ENOMEM",
	13:                    "EACCES",
	14:                    "EFAULT",
	15:                    "ENOTBLK",
	16:                    "EBUSY",
	17:                    "EEXIST",
	18:                    "EXDEV",
	19:                    "ENODEV",
	20:                    "ENOTDIR",
	21:                    "EISDIR",
	22:                    "EINVAL",
	23:                    "ENFILE",
	24:                    "EMFILE",
	25:                    "ENOTTY",
	26:                    "ETXTBSY",
	27:                    "EFBIG",
	28:                    "ENOSPC",
	29:                    "ESPIPE",
	30:                    "EROFS",
	31:                    "EMLINK",
	32:                    "EPIPE",
	33:                    "EDOM",
	34:                    "ERANGE",
	DarwinEAGAIN:          "EAGAIN",
	DarwinEINPROGRESS:     "EINPROGRESS",
	DarwinEALREADY:        "EALREADY",
	DarwinENOTSOCK:        "ENOTSOCK",
	DarwinEDESTADDRREQ:    "EDESTADDRREQ",
	DarwinEMSGSIZE:        "EMSGSIZE",
	DarwinEPROTOTYPE:      "EPROTOTYPE",
	DarwinENOPROTOOPT:     "ENOPROTOOPT",
	DarwinEPROTONOSUPPORT: "EPROTONOSUPPORT",
	DarwinESOCKTNOSUPPORT: "ESOCKTNOSUPPORT",
	DarwinENOTSUP:         "ENOTSUP",
	DarwinEPFNOSUPPORT:    "EPFNOSUPPORT",
	DarwinEAFNOSUPPORT:    "EAFNOSUPPORT",
	DarwinEADDRINUSE:      "EADDRINUSE",
	DarwinEADDRNOTAVAIL:   "EADDRNOTAVAIL",
	DarwinENETDOWN:        "ENETDOWN",
	DarwinENETUNREACH:     "ENETUNREACH",
	DarwinENETRESET:       "ENETRESET",
	DarwinECONNABORTED:    "ECONNABORTED",
	DarwinECONNRESET:      "ECONNRESET",
	DarwinENOBUFS:         "ENOBUFS",
	DarwinEISCONN:         "EISCONN",
	DarwinENOTCONN:        "ENOTCONN",
	DarwinESHUTDOWN:       "ESHUTDOWN",
	DarwinETOOMANYREFS:    "ETOOMANYREFS",
	DarwinETIMEDOUT:       "ETIMEDOUT",
	DarwinECONNREFUSED:    "ECONNREFUSED",
	DarwinELOOP:           "ELOOP",
	DarwinENAMETOOLONG:    "ENAMETOOLONG",
	DarwinEHOSTDOWN:       "EHOSTDOWN",
	DarwinEHOSTUNREACH:    "EHOSTUNREACH",
	DarwinENOTEMPTY:       "ENOTEMPTY",
	DarwinEPROCLIM:        "EPROCLIM",
	DarwinEUSERS:          "EUSERS",
	DarwinEDQUOT:          "EDQUOT",
	DarwinESTALE:          "ESTALE",
	DarwinEREMOTE:         "EREMOTE",
	DarwinEBADRPC:         "EBADRPC",
	DarwinERPCMISMATCH:    "ERPCMISMATCH",
	DarwinEPROGUNAVAIL:    "EPROGUNAVAIL",
	DarwinEPROGMISMATCH:   "EPROGMISMATCH",
	DarwinEPROCUNAVAIL:    "EPROCUNAVAIL",
	DarwinENOLCK:          "ENOLCK",
	DarwinENOSYS:          "ENOSYS",
	DarwinEFTYPE:          "EFTYPE",
	DarwinEAUTH:           "EAUTH",
	DarwinENEEDAUTH:       "ENEEDAUTH",
	DarwinEPWROFF:         "EPWROFF",
	DarwinEDEVERR:         "EDEVERR",
	DarwinEOVERFLOW:       "EOVERFLOW",
	DarwinEBADEXEC:        "EBADEXEC",
	DarwinEBADARCH:        "EBADARCH",
	DarwinESHLIBVERS:      "ESHLIBVERS",
	DarwinEBADMACHO:       "EBADMACHO",
	DarwinECANCELED:       "ECANCELED",
	DarwinEIDRM:           "EIDRM",
	DarwinENOMSG:          "ENOMSG",
	DarwinEILSEQ:          "EILSEQ",
	DarwinENOATTR:         "ENOATTR",
	DarwinEBADMSG:         "EBADMSG",
	DarwinEMULTIHOP:       "EMULTIHOP",
	DarwinENODATA:         "ENODATA",
	DarwinENOLINK:         "ENOLINK",
	DarwinENOSR:           "ENOSR",
	DarwinENOSTR:          "ENOSTR",
	DarwinEPROTO:          "EPROTO",
	DarwinETIME:           "ETIME",
	DarwinEOPNOTSUPP:      "EOPNOTSUPP",
	DarwinENOPOLICY:       "ENOPOLICY",
	DarwinENOTRECOVERABLE: "ENOTRECOVERABLE",
	DarwinEOWNERDEAD:      "EOWNERDEAD",
	DarwinEQFULL:          "EQFULL",
}

// Name returns the symbolic name of a Darwin error number.
func Name(darwin int) string {
	if darwin >= 0 {
		if n, ok := Names[uint64(darwin)]; ok {
			return n
		}
	}
	return fmt.Sprintf("errno %d", darwin)
}
