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

// Package config holds the tracer configuration. A Config is built once at
// startup from the environment, never modified afterwards, and re-exported
// into the environment of every program the traced process execs.
package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/mohae/deepcopy"
	"gvisor.dev/xtrace/pkg/log"
)

// Environment variable names.
const (
	EnvSplitEntryAndExit = "XTRACE_SPLIT_ENTRY_AND_EXIT"
	EnvNoColor           = "XTRACE_NO_COLOR"
	EnvKprintf           = "XTRACE_KPRINTF"
	EnvPerThreadLogFile  = "XTRACE_LOG_FILE_PER_THREAD"
	EnvLogFile           = "XTRACE_LOG_FILE"
)

// maxPathLen is PATH_MAX, including the terminating NUL of the C string the
// path ends up in.
const maxPathLen = 4096

// Config holds the tracer options.
//
// Fields are exported to and read from the environment variable named by their
// `env` tag. Field order is the order variables are exported in.
type Config struct {
	// SplitEntryAndExit logs every call entry and exit on separate lines
	// instead of appending the result to the entry line.
	SplitEntryAndExit bool `env:"XTRACE_SPLIT_ENTRY_AND_EXIT" toml:"split_entry_and_exit"`

	// NoColor disables ANSI colors.
	NoColor bool `env:"XTRACE_NO_COLOR" toml:"no_color"`

	// Kprintf sends trace lines to the kernel log.
	Kprintf bool `env:"XTRACE_KPRINTF" toml:"kprintf"`

	// PerThreadLogFile opens one log file per thread, named LogFile.<tid>.
	PerThreadLogFile bool `env:"XTRACE_LOG_FILE_PER_THREAD" toml:"log_file_per_thread"`

	// LogFile is the log file path (or base path with PerThreadLogFile).
	// Empty means no log file.
	LogFile string `env:"XTRACE_LOG_FILE" toml:"log_file"`
}

// SinkKind identifies where trace lines go.
type SinkKind int

// Sink kinds, in priority order.
const (
	SinkKernel SinkKind = iota
	SinkFile
	SinkStdout
)

// String implements fmt.Stringer.
func (k SinkKind) String() string {
	switch k {
	case SinkKernel:
		return "kernel"
	case SinkFile:
		return "file"
	case SinkStdout:
		return "stdout"
	default:
		return fmt.Sprintf("SinkKind(%d)", int(k))
	}
}

// Truthy reports whether s is a true flag value: anything starting with 1, T,
// t, Y or y.
func Truthy(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '1', 'T', 't', 'Y', 'y':
		return true
	}
	return false
}

// FromEnv creates a new Config from the environment. lookup is typically
// os.LookupEnv. Unset variables leave the zero value.
func FromEnv(lookup func(string) (string, bool)) *Config {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}
		val, ok := lookup(name)
		if !ok {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Bool:
			obj.Field(i).SetBool(Truthy(val))
		case reflect.String:
			obj.Field(i).SetString(val)
		default:
			panic(fmt.Sprintf("field %q has unsupported type %v", f.Name, f.Type))
		}
	}
	return conf
}

// FromProcessEnv creates a new Config from the process environment.
func FromProcessEnv() *Config {
	return FromEnv(os.LookupEnv)
}

// Var is a single environment variable.
type Var struct {
	Key   string
	Value string
}

// String returns the KEY=VALUE form.
func (v Var) String() string {
	return v.Key + "=" + v.Value
}

// ToEnv returns every option as an environment variable, including options at
// their default value, so that a new program image configures itself the same
// way without inheriting anything else. Booleans are exported as "1" or "0".
func (c *Config) ToEnv() []Var {
	var rv []Var

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}
		rv = append(rv, Var{Key: name, Value: getVal(obj.Field(i))})
	}
	return rv
}

func getVal(field reflect.Value) string {
	switch field.Kind() {
	case reflect.Bool:
		if field.Bool() {
			return "1"
		}
		return "0"
	case reflect.String:
		return field.String()
	default:
		panic(fmt.Sprintf("unsupported config field kind %v", field.Kind()))
	}
}

// UseLogFile returns true if trace lines may be written to a log file.
func (c *Config) UseLogFile() bool {
	return c.LogFile != ""
}

// Sink returns the trace line destination. The kernel log wins over a log
// file, which wins over standard output.
func (c *Config) Sink() SinkKind {
	switch {
	case c.Kprintf:
		return SinkKernel
	case c.UseLogFile():
		return SinkFile
	default:
		return SinkStdout
	}
}

// Validate checks the configuration for values the tracer cannot honor.
func (c *Config) Validate() error {
	if len(c.LogFile) >= maxPathLen {
		return fmt.Errorf("%s is %d bytes long, the limit is %d", EnvLogFile, len(c.LogFile), maxPathLen-1)
	}
	if c.PerThreadLogFile && !c.UseLogFile() {
		return fmt.Errorf("%s requires %s", EnvPerThreadLogFile, EnvLogFile)
	}
	return nil
}

// Copy returns a deep copy of c.
func (c *Config) Copy() *Config {
	return deepcopy.Copy(c).(*Config)
}

// Load reads a configuration file in TOML format. Unknown keys are an error.
func Load(path string) (*Config, error) {
	conf := &Config{}
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in config %q: %v", path, undecoded)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return conf, nil
}

// Log logs the configuration at debug level.
func (c *Config) Log() {
	log.Debugf("Config:")
	for _, v := range c.ToEnv() {
		log.Debugf("\t%s: %q", v.Key, v.Value)
	}
	log.Debugf("\tsink: %v", c.Sink())
}
