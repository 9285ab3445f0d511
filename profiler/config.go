// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/dprofiler/cmn/cos"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

const DefaultBufSize = cos.MiB

type (
	Mode int
	Unit int

	// Config is resolved once (command line and/or config file) and
	// is read-only thereafter.
	Config struct {
		Device      string      `json:"device" yaml:"device"`
		Mode        Mode        `json:"mode" yaml:"mode"`
		BufSize     cos.SizeIEC `json:"buf_size" yaml:"buf_size"`
		GroupSize   int         `json:"group_size" yaml:"group_size"`
		Unit        Unit        `json:"unit" yaml:"unit"`
		DataFile    string      `json:"data_file" yaml:"data_file"`
		MetricsFile string      `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
		Verbose     int         `json:"verbose" yaml:"verbose"`
		Sync        bool        `json:"sync" yaml:"sync"`
		WriteZeros  bool        `json:"write_zeros" yaml:"write_zeros"`
		Strict      bool        `json:"strict" yaml:"strict"`
		FsyncData   bool        `json:"fsync_data" yaml:"fsync_data"`
		Verify      bool        `json:"verify" yaml:"verify"`
	}
)

const (
	ModeInfo Mode = iota
	ModeRead
	ModeWrite
)

const (
	UnitUsec Unit = iota // accumulated microseconds per group
	UnitRate             // bytes per microsecond (MB/s)
)

var (
	modeText = []string{ModeInfo: "info", ModeRead: "read", ModeWrite: "write"}
	unitText = []string{UnitUsec: "usec", UnitRate: "rate"}
)

//////////
// Mode //
//////////

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeText) {
		return modeText[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

func ParseMode(s string) (Mode, error) {
	for i, txt := range modeText {
		if strings.EqualFold(s, txt) {
			return Mode(i), nil
		}
	}
	return 0, newErrConfig("mode", "unknown mode %q (expecting one of %v)", s, modeText)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMode(string(b))
	return
}

func (m *Mode) UnmarshalYAML(node *yaml.Node) error { return m.UnmarshalText([]byte(node.Value)) }

//////////
// Unit //
//////////

func (u Unit) String() string {
	if u >= 0 && int(u) < len(unitText) {
		return unitText[u]
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

func ParseUnit(s string) (Unit, error) {
	for i, txt := range unitText {
		if strings.EqualFold(s, txt) {
			return Unit(i), nil
		}
	}
	return 0, newErrConfig("unit", "unknown unit %q (expecting one of %v)", s, unitText)
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Unit) UnmarshalText(b []byte) (err error) {
	*u, err = ParseUnit(string(b))
	return
}

func (u *Unit) UnmarshalYAML(node *yaml.Node) error { return u.UnmarshalText([]byte(node.Value)) }

////////////
// Config //
////////////

// Validate checks the invariants the measurement loop relies upon.
func (c *Config) Validate() error {
	if c.Device == "" {
		return newErrConfig("device", "block device must be specified")
	}
	switch c.Mode {
	case ModeInfo, ModeRead, ModeWrite:
	default:
		return newErrConfig("mode", "invalid mode %d", c.Mode)
	}
	switch c.Unit {
	case UnitUsec, UnitRate:
	default:
		return newErrConfig("unit", "invalid unit %d", c.Unit)
	}
	if c.BufSize <= 0 {
		return newErrConfig("buf_size", "buffer must be greater than zero, got %d", c.BufSize)
	}
	if c.GroupSize < 1 {
		return newErrConfig("group_size", "group size must be at least 1, got %d", c.GroupSize)
	}
	if c.Verbose < 0 {
		return newErrConfig("verbose", "negative verbosity %d", c.Verbose)
	}
	if c.WriteZeros && c.Mode != ModeWrite {
		return newErrConfig("write_zeros", "can only be used with %s mode", ModeWrite)
	}
	if c.Verify && c.Mode != ModeRead {
		return newErrConfig("verify", "can only be used with %s mode", ModeRead)
	}
	if c.Mode != ModeInfo && c.DataFile == "" {
		return newErrConfig("data_file", "data file must be specified in %s mode", c.Mode)
	}
	return nil
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON config file; fields absent
// from the file keep their zero values.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(cos.ExpandPath(path))
	if err != nil {
		return nil, &ErrConfig{Field: "config", Reason: "failed to read " + path, Err: err}
	}
	c := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = jsoniter.Unmarshal(b, c)
	}
	if err != nil {
		return nil, &ErrConfig{Field: "config", Reason: "failed to parse " + path, Err: err}
	}
	return c, nil
}
