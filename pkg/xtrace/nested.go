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

import "errors"

// maxNesting is the deepest call nesting tracked per thread.
const maxNesting = 64

var (
	// ErrNestingOverflow is returned when a thread enters more than
	// maxNesting calls without exiting any.
	ErrNestingOverflow = errors.New("call nesting exceeds 64 levels")

	// ErrNestingUnderflow is returned when a thread exits a call it never
	// entered.
	ErrNestingUnderflow = errors.New("call exit without matching entry")
)

// nestedCalls tracks the calls a thread is inside of.
//
// After an entry, previous < current; after an exit, previous > current.
// Comparing the two tells whether the line of the innermost call is still
// open for its result to be appended.
type nestedCalls struct {
	// current is the number of entries without a matching exit.
	current int

	// previous is the value of current before the last transition.
	previous int

	// nrs holds call numbers, indexed by level.
	nrs [maxNesting]int

	// dropped counts entries past maxNesting. Their exits are dropped too
	// so that the levels below stay matched.
	dropped int
}

// lineOpen returns true if the last transition was an entry, whose line may
// still be waiting for its result.
func (n *nestedCalls) lineOpen() bool {
	return n.previous < n.current
}

// afterExit returns true if the last transition was an exit. The line of the
// call being exited was then flushed long ago and must be started again.
func (n *nestedCalls) afterExit() bool {
	return n.previous > n.current
}

// depth returns the nesting level of the next entry.
func (n *nestedCalls) depth() int {
	return n.current
}

// push records the entry of call nr.
func (n *nestedCalls) push(nr int) error {
	if n.current >= maxNesting {
		n.dropped++
		return ErrNestingOverflow
	}
	n.nrs[n.current] = nr
	n.previous = n.current
	n.current++
	return nil
}

// pop records an exit and returns the number and level of the exited call.
func (n *nestedCalls) pop() (nr, level int, err error) {
	if n.dropped > 0 {
		n.dropped--
		return 0, 0, ErrNestingOverflow
	}
	if n.current == 0 {
		return 0, 0, ErrNestingUnderflow
	}
	n.previous = n.current
	n.current--
	return n.nrs[n.current], n.current, nil
}
