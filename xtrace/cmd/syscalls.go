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
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"
	"gvisor.dev/xtrace/pkg/xtrace/calldef"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
	family string
}

// CallDoc describes a single traced call.
type CallDoc struct {
	Family string `json:"family"`
	Num    int    `json:"num"`
	Name   string `json:"name"`
	Args   int    `json:"args"`
}

type callsOutputFunc func(io.Writer, []CallDoc) error

var (
	// The family name to use for printing every family.
	familyAll = "all"

	// Traced call families, in output order.
	callTables = []*calldef.Table{calldef.MachTraps, calldef.BSDSyscalls}

	// A map of output type names to output functions.
	callsOutputMap = map[string]callsOutputFunc{
		"table": callsTable,
		"json":  callsJSON,
		"csv":   callsCSV,
	}
)

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the calls the tracer decodes."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the calls the tracer decodes.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, csv, json).")
	f.StringVar(&s.family, "family", familyAll, "The call family (mach, bsd or all).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out, ok := callsOutputMap[s.output]
	if !ok {
		Fatalf("Unsupported output format %q", s.output)
	}
	docs, err := callDocs(s.family)
	if err != nil {
		Fatalf("%v", err)
	}
	if err := out(os.Stdout, docs); err != nil {
		Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// callDocs returns the calls of family, or of every family for "all", sorted
// by family then number.
func callDocs(family string) ([]CallDoc, error) {
	var docs []CallDoc
	found := false
	for _, t := range callTables {
		if family != familyAll && family != t.Type {
			continue
		}
		found = true
		for _, nr := range t.Numbers() {
			d := t.Lookup(nr)
			docs = append(docs, CallDoc{Family: t.Type, Num: nr, Name: d.Name, Args: d.Args})
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown call family %q", family)
	}
	return docs, nil
}

// callsTable outputs the calls in tabular format.
func callsTable(w io.Writer, docs []CallDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", "FAMILY", "NUM", "NAME", "ARGS"); err != nil {
		return err
	}
	for _, d := range docs {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", d.Family, d.Num, d.Name, d.Args); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// callsJSON outputs the calls in JSON format.
func callsJSON(w io.Writer, docs []CallDoc) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(docs)
}

// callsCSV outputs the calls in CSV format.
func callsCSV(w io.Writer, docs []CallDoc) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"family", "num", "name", "args"}); err != nil {
		return err
	}
	for _, d := range docs {
		row := []string{d.Family, strconv.Itoa(d.Num), d.Name, strconv.Itoa(d.Args)}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
