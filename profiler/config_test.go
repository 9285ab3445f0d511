// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/profiler"
	"github.com/NVIDIA/dprofiler/tools/tassert"
)

func validConfig() profiler.Config {
	return profiler.Config{
		Device:    "/dev/null",
		Mode:      profiler.ModeRead,
		BufSize:   profiler.DefaultBufSize,
		GroupSize: 1,
		DataFile:  "out.dat",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*profiler.Config)
		field  string
	}{
		{"valid", func(*profiler.Config) {}, ""},
		{"info without datafile", func(c *profiler.Config) { c.Mode, c.DataFile = profiler.ModeInfo, "" }, ""},
		{"write zeros", func(c *profiler.Config) { c.Mode, c.WriteZeros = profiler.ModeWrite, true }, ""},
		{"no device", func(c *profiler.Config) { c.Device = "" }, "device"},
		{"zero buffer", func(c *profiler.Config) { c.BufSize = 0 }, "buf_size"},
		{"negative buffer", func(c *profiler.Config) { c.BufSize = -1 }, "buf_size"},
		{"zero group", func(c *profiler.Config) { c.GroupSize = 0 }, "group_size"},
		{"bad mode", func(c *profiler.Config) { c.Mode = 7 }, "mode"},
		{"bad unit", func(c *profiler.Config) { c.Unit = 9 }, "unit"},
		{"write zeros in read mode", func(c *profiler.Config) { c.WriteZeros = true }, "write_zeros"},
		{"verify in write mode", func(c *profiler.Config) { c.Mode, c.Verify = profiler.ModeWrite, true }, "verify"},
		{"no datafile", func(c *profiler.Config) { c.DataFile = "" }, "data_file"},
		{"negative verbosity", func(c *profiler.Config) { c.Verbose = -1 }, "verbose"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := validConfig()
			test.modify(&c)
			err := c.Validate()
			if test.field == "" {
				tassert.CheckError(t, err)
				return
			}
			var errCfg *profiler.ErrConfig
			tassert.Fatalf(t, errors.As(err, &errCfg), "expecting ErrConfig, got %v", err)
			tassert.Errorf(t, errCfg.Field == test.field, "expecting field %q, got %q (%v)", test.field, errCfg.Field, err)
		})
	}
}

func TestParseModeUnit(t *testing.T) {
	for _, s := range []string{"info", "READ", "Write"} {
		m, err := profiler.ParseMode(s)
		tassert.CheckError(t, err)
		b, _ := m.MarshalText()
		tassert.Errorf(t, string(b) == m.String(), "%q vs %q", b, m)
	}
	_, err := profiler.ParseMode("erase")
	tassert.Errorf(t, err != nil, "expecting error for unknown mode")

	u, err := profiler.ParseUnit("rate")
	tassert.CheckError(t, err)
	tassert.Errorf(t, u == profiler.UnitRate, "unit %s", u)
	_, err = profiler.ParseUnit("MB/s")
	tassert.Errorf(t, err != nil, "expecting error for unknown unit")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yamlCfg := filepath.Join(dir, "dprofiler.yaml")
	tassert.CheckFatal(t, os.WriteFile(yamlCfg, []byte(`
device: /dev/sdz
mode: write
buf_size: 4MiB
group_size: 8
unit: rate
data_file: /tmp/sdz.dat
write_zeros: true
fsync_data: true
`), 0o644))
	jsonCfg := filepath.Join(dir, "dprofiler.json")
	tassert.CheckFatal(t, os.WriteFile(jsonCfg, []byte(`{
	"device": "/dev/sdz",
	"mode": "write",
	"buf_size": 4194304,
	"group_size": 8,
	"unit": "rate",
	"data_file": "/tmp/sdz.dat",
	"write_zeros": true,
	"fsync_data": true
}`), 0o644))

	for _, fn := range []string{yamlCfg, jsonCfg} {
		c, err := profiler.LoadConfig(fn)
		tassert.CheckFatal(t, err)
		tassert.CheckError(t, c.Validate())
		tassert.Errorf(t, c.Device == "/dev/sdz" && c.Mode == profiler.ModeWrite && c.Unit == profiler.UnitRate,
			"%s: %+v", fn, c)
		tassert.Errorf(t, c.BufSize == 4*cos.MiB && c.GroupSize == 8, "%s: %+v", fn, c)
		tassert.Errorf(t, c.WriteZeros && c.FsyncData && !c.Strict, "%s: %+v", fn, c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := map[string]string{
		"mode.yaml": "mode: erase\n",
		"unit.json": `{"unit": "MB/s"}`,
		"size.yml":  "buf_size: lots\n",
		"junk.json": "{",
	}
	for name, content := range bad {
		fn := filepath.Join(dir, name)
		tassert.CheckFatal(t, os.WriteFile(fn, []byte(content), 0o644))
		_, err := profiler.LoadConfig(fn)
		var errCfg *profiler.ErrConfig
		tassert.Errorf(t, errors.As(err, &errCfg), "%s: expecting ErrConfig, got %v", name, err)
	}
	_, err := profiler.LoadConfig(filepath.Join(dir, "missing.yaml"))
	tassert.Errorf(t, errors.Is(err, os.ErrNotExist), "expecting ENOENT, got %v", err)
}
