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

package hostarch

import "fmt"

// AddrRange is a range of Addrs [Start, End).
type AddrRange struct {
	Start Addr
	End   Addr
}

// Length returns the length of the range.
func (r AddrRange) Length() uint64 {
	return uint64(r.End - r.Start)
}

// WellFormed returns true if r.Start <= r.End.
func (r AddrRange) WellFormed() bool {
	return r.Start <= r.End
}

// Contains returns true if r contains x.
func (r AddrRange) Contains(x Addr) bool {
	return r.Start <= x && x < r.End
}

// Union returns the smallest range containing both r and r2.
func (r AddrRange) Union(r2 AddrRange) AddrRange {
	if r.Length() == 0 {
		return r2
	}
	if r2.Length() == 0 {
		return r
	}
	u := r
	if r2.Start < u.Start {
		u.Start = r2.Start
	}
	if r2.End > u.End {
		u.End = r2.End
	}
	return u
}

// RoundOut returns the smallest page-aligned range containing r. ok is false
// if rounding the end up wrapped around.
func (r AddrRange) RoundOut() (ar AddrRange, ok bool) {
	end, ok := r.End.RoundUp()
	return AddrRange{Start: r.Start.RoundDown(), End: end}, ok
}

// IsPageAligned returns true if both bounds of r are page aligned.
func (r AddrRange) IsPageAligned() bool {
	return r.Start.IsPageAligned() && r.End.IsPageAligned()
}

// String implements fmt.Stringer.String.
func (r AddrRange) String() string {
	return fmt.Sprintf("[%#x, %#x)", uintptr(r.Start), uintptr(r.End))
}
