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
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCallDocs(t *testing.T) {
	all, err := callDocs(familyAll)
	if err != nil {
		t.Fatalf("callDocs(all): %v", err)
	}
	mach, err := callDocs("mach")
	if err != nil {
		t.Fatalf("callDocs(mach): %v", err)
	}
	bsd, err := callDocs("bsd")
	if err != nil {
		t.Fatalf("callDocs(bsd): %v", err)
	}
	if diff := cmp.Diff(all, append(append([]CallDoc{}, mach...), bsd...)); diff != "" {
		t.Errorf("all is not mach then bsd (-all +mach,bsd):\n%s", diff)
	}
	for i := 1; i < len(bsd); i++ {
		if bsd[i-1].Num >= bsd[i].Num {
			t.Errorf("bsd calls out of order: %d before %d", bsd[i-1].Num, bsd[i].Num)
		}
	}

	want := CallDoc{Family: "bsd", Num: 4, Name: "write", Args: 3}
	found := false
	for _, d := range bsd {
		if d.Num == want.Num {
			found = true
			if d != want {
				t.Errorf("bsd call 4 = %+v, want %+v", d, want)
			}
		}
	}
	if !found {
		t.Errorf("bsd call 4 missing")
	}

	if _, err := callDocs("mig"); err == nil {
		t.Errorf("callDocs(mig) succeeded, want error")
	}
}

func TestCallsOutput(t *testing.T) {
	docs := []CallDoc{
		{Family: "mach", Num: 26, Name: "mach_reply_port"},
		{Family: "bsd", Num: 4, Name: "write", Args: 3},
	}

	var b bytes.Buffer
	if err := callsTable(&b, docs); err != nil {
		t.Fatalf("callsTable(): %v", err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "FAMILY") || !strings.Contains(lines[2], "write") {
		t.Errorf("callsTable() = %q", b.String())
	}

	b.Reset()
	if err := callsJSON(&b, docs); err != nil {
		t.Fatalf("callsJSON(): %v", err)
	}
	var got []CallDoc
	if err := json.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(%q): %v", b.String(), err)
	}
	if diff := cmp.Diff(docs, got); diff != "" {
		t.Errorf("callsJSON() mismatch (-want +got):\n%s", diff)
	}

	b.Reset()
	if err := callsCSV(&b, docs); err != nil {
		t.Fatalf("callsCSV(): %v", err)
	}
	rows, err := csv.NewReader(&b).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll(): %v", err)
	}
	wantRows := [][]string{
		{"family", "num", "name", "args"},
		{"mach", "26", "mach_reply_port", "0"},
		{"bsd", "4", "write", "3"},
	}
	if diff := cmp.Diff(wantRows, rows); diff != "" {
		t.Errorf("callsCSV() mismatch (-want +got):\n%s", diff)
	}
}
