// Package main for the `dprofiler` executable.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/nlog"
	"github.com/NVIDIA/dprofiler/profiler"
)

const dfltDataPrefix = "dprofiler"

// single-letter switches that may be combined (e.g. `-rvv`)
const shortBools = "rwihmzvy"

type (
	cliFlags struct {
		device   onceString
		datafile onceString
		bufsize  onceString
		config   string
		metrics  string
		group    int
		verbose  counter
		mode     modeFlag
		help     bool
		rate     onceBool
		zeros    onceBool
		sync     onceBool
		strict   bool
		fsync    bool
		verify   bool
	}

	// string flag that may be given at most once
	onceString struct {
		name string
		val  string
		set  bool
	}
	// boolean flag that may be given at most once
	onceBool struct {
		name string
		val  bool
	}
	// -v, -v, ...
	counter int

	// -r | -w | -i: mutually exclusive
	modeFlag struct {
		val profiler.Mode
		set bool
	}
	modeSwitch struct {
		m    *modeFlag
		name string
		mode profiler.Mode
	}
)

func (s *onceString) String() string { return s.val }

func (s *onceString) Set(v string) error {
	if s.set {
		return fmt.Errorf("invalid argument \"-%s\", %s already set", s.name, s.what())
	}
	s.val, s.set = v, true
	return nil
}

func (s *onceString) what() string {
	switch s.name {
	case "d":
		return "device"
	case "o":
		return "data file"
	default:
		return "buffer"
	}
}

func (b *onceBool) String() string { return strconv.FormatBool(b.val) }
func (*onceBool) IsBoolFlag() bool { return true }

func (b *onceBool) Set(v string) error {
	on, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	if b.val && on {
		return fmt.Errorf("invalid argument \"-%s\", already set", b.name)
	}
	b.val = on
	return nil
}

func (c *counter) String() string { return strconv.Itoa(int(*c)) }
func (*counter) IsBoolFlag() bool { return true }

func (c *counter) Set(v string) error {
	on, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	if on {
		*c++
	}
	return nil
}

func (s *modeSwitch) String() string {
	if s == nil || s.m == nil {
		return "false"
	}
	return strconv.FormatBool(s.m.set && s.m.val == s.mode)
}

func (*modeSwitch) IsBoolFlag() bool { return true }

func (s *modeSwitch) Set(v string) error {
	on, err := strconv.ParseBool(v)
	if err != nil || !on {
		return err
	}
	if s.m.set {
		return fmt.Errorf("invalid argument \"-%s\", operation mode already set", s.name)
	}
	s.m.val, s.m.set = s.mode, true
	return nil
}

func newFlagSet(prog string, flags *cliFlags) *flag.FlagSet {
	f := flag.NewFlagSet(prog, flag.ContinueOnError)
	f.SetOutput(io.Discard)

	flags.device.name, flags.datafile.name, flags.bufsize.name = "d", "o", "b"
	flags.rate.name, flags.zeros.name, flags.sync.name = "m", "z", "y"

	f.Var(&modeSwitch{m: &flags.mode, name: "r", mode: profiler.ModeRead}, "r", "read from the device")
	f.Var(&modeSwitch{m: &flags.mode, name: "w", mode: profiler.ModeWrite}, "w", "write to the device (destroys its content)")
	f.Var(&modeSwitch{m: &flags.mode, name: "i", mode: profiler.ModeInfo}, "i", "print device info and exit (default)")
	f.Var(&flags.device, "d", "block device to operate on")
	f.BoolVar(&flags.help, "h", false, "print usage and exit")
	f.Var(&flags.rate, "m", "output in MB/s instead of microseconds")
	f.Var(&flags.zeros, "z", "write zeros (write mode only)")
	f.Var(&flags.verbose, "v", "increase verbosity (may be repeated)")
	f.Var(&flags.bufsize, "b", "buffer size in bytes, K/M/G suffixes allowed (default 1MiB)")
	f.IntVar(&flags.group, "g", 1, "group measurements and accumulate accordingly")
	f.Var(&flags.datafile, "o", "output data file (default dprofiler<pid>.dat)")
	f.Var(&flags.sync, "y", "open device with O_SYNC")

	f.StringVar(&flags.config, "config", "", "YAML or JSON configuration file (command line takes precedence)")
	f.BoolVar(&flags.strict, "strict", false, "fail the run when an I/O operation fails")
	f.BoolVar(&flags.fsync, "fsync", false, "fdatasync the data file after each sample")
	f.BoolVar(&flags.verify, "verify", false, "verify that a read run leaves the device unchanged")
	f.StringVar(&flags.metrics, "metrics", "", "write Prometheus metrics to this file at the end of the run")
	nlog.InitFlags(f)
	return f
}

// expandArgs splits combined single-letter switches ("-rvv" => "-r -v -v")
func expandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) < 3 || arg[0] != '-' || arg[1] == '-' || strings.Trim(arg[1:], shortBools) != "" {
			out = append(out, arg)
			continue
		}
		for _, c := range arg[1:] {
			out = append(out, "-"+string(c))
		}
	}
	return out
}

// parseCmdLine resolves the command line (and optional config file) into
// a validated configuration. Returns flag.ErrHelp when usage was requested.
func parseCmdLine(prog string, args []string) (*profiler.Config, error) {
	var (
		flags cliFlags
		f     = newFlagSet(prog, &flags)
	)
	if err := f.Parse(expandArgs(args)); err != nil {
		return nil, &profiler.ErrConfig{Reason: "command line", Err: err}
	}
	if flags.help {
		return nil, flag.ErrHelp
	}
	if f.NArg() > 0 {
		return nil, &profiler.ErrConfig{Reason: fmt.Sprintf("unexpected arguments %q", f.Args())}
	}

	cfg := &profiler.Config{}
	if flags.config != "" {
		loaded, err := profiler.LoadConfig(flags.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// explicitly given flags override the config file
	var err error
	f.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "r", "w", "i":
			cfg.Mode = flags.mode.val
		case "d":
			cfg.Device = flags.device.val
		case "m":
			cfg.Unit = profiler.UnitUsec
			if flags.rate.val {
				cfg.Unit = profiler.UnitRate
			}
		case "z":
			cfg.WriteZeros = flags.zeros.val
		case "v":
			cfg.Verbose = int(flags.verbose)
		case "b":
			var size int64
			if size, err = cos.ParseSize(flags.bufsize.val, cos.UnitsIEC); err != nil {
				err = &profiler.ErrConfig{Field: "buf_size", Reason: "invalid value for \"-b\"", Err: err}
				return
			}
			if size <= 0 {
				err = &profiler.ErrConfig{Field: "buf_size", Reason: "invalid value for \"-b\", buffer must be greater than zero"}
				return
			}
			cfg.BufSize = cos.SizeIEC(size)
		case "g":
			cfg.GroupSize = flags.group
		case "o":
			cfg.DataFile = flags.datafile.val
		case "y":
			cfg.Sync = flags.sync.val
		case "strict":
			cfg.Strict = flags.strict
		case "fsync":
			cfg.FsyncData = flags.fsync
		case "verify":
			cfg.Verify = flags.verify
		case "metrics":
			cfg.MetricsFile = flags.metrics
		}
	})
	if err != nil {
		return nil, err
	}

	// defaults
	if cfg.BufSize == 0 {
		cfg.BufSize = profiler.DefaultBufSize
	}
	if cfg.GroupSize == 0 {
		cfg.GroupSize = 1
	}
	if cfg.DataFile == "" {
		cfg.DataFile = dfltDataPrefix + strconv.Itoa(os.Getpid()) + ".dat"
	}
	cfg.DataFile = cos.ExpandPath(cfg.DataFile)
	if cfg.MetricsFile != "" {
		cfg.MetricsFile = cos.ExpandPath(cfg.MetricsFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func usage(w io.Writer, prog string) {
	profiler.Banner(w)
	fmt.Fprintf(w, "Usage: %s < -r | -w | -i > < -d dev_name >\n", prog)
	fmt.Fprintf(w, "         [ -hmzyv[v] ] [ -b <buf_size> ] [ -g <grp_size> ] [ -o <datafile> ]\n")
	fmt.Fprintf(w, "         [ -config <file> ] [ -strict ] [ -fsync ] [ -verify ] [ -metrics <file> ]\n")
	fmt.Fprintf(w, "         [ -logdir <dir> ] [ -logtostderr ]\n")
	fmt.Fprint(w, `       -r | -w | -i  Read from, write to or simply print info of the device.
                     (default is -i)
       -d dev_name   Specify block device to operate on.
                     !!WARNING!!
                     When using -w, the device will be overwritten.
       -h            Print this help message and quit.
       -m            Output in MB/s instead of us.
       -z            When writing, write only zeros.
       -v            Increase verbose level (may be used multiple times).
       -b buf_size   Specify different buffer size.
                     (in bytes, K/M/G suffixes allowed, default is 1048576)
       -g grp_size   Group measurements and average results accordingly.
                     (default is 1)
       -o datafile   Specify output datafile name.
                     (default=dprofiler<pid>.dat)
       -y            Open device with O_SYNC (see open(2) man page).
       -config file  Load settings from a YAML or JSON file; flags take precedence.
       -strict       Exit with an error when an I/O operation fails.
       -fsync        Flush the data file to stable storage after each line.
       -verify       With -r, checksum the device before and after the run.
       -metrics file Write Prometheus metrics (textfile format) at the end.
       -logdir dir   Write logs to this directory (default: standard error).
       -logtostderr  Log to standard error even when -logdir is given.
`)
}
