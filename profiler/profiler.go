// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"fmt"
	"io"
	"os"

	"github.com/NVIDIA/dprofiler/blkdev"
	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/nlog"
	"github.com/NVIDIA/dprofiler/ios"
	"github.com/NVIDIA/dprofiler/memsys"
	"github.com/NVIDIA/dprofiler/stats"
)

// Profiler owns a single run: the device, the aligned buffer, and the data file.
type Profiler struct {
	Stdout  io.Writer // sample mirror (verbose >= 2)
	Stderr  io.Writer // device report
	tracker *stats.Tracker
	cfg     Config
}

func New(cfg *Config) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Profiler{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		cfg:     *cfg,
		tracker: stats.New(stats.NewRunID(), cfg.Mode.String()),
	}
	return p, nil
}

func (p *Profiler) Config() *Config          { return &p.cfg }
func (p *Profiler) Tracker() *stats.Tracker { return p.tracker }

// Run probes the device and, unless in info mode, measures it end to end.
// Resources are released in reverse order of acquisition on every path.
func (p *Profiler) Run() (res Result, err error) {
	cfg := &p.cfg

	dev, err := blkdev.Open(cfg.Device, cfg.Sync)
	if err != nil {
		return res, err
	}
	defer dev.Close()
	p.tracker.SetDeviceSize(dev.Size())

	buf, err := memsys.NewAligned(int64(cfg.BufSize))
	if err != nil {
		return res, err
	}
	defer buf.Close()

	var sink *Sink
	if cfg.Mode != ModeInfo {
		var mirror io.Writer
		if cfg.Verbose >= 2 {
			mirror = p.Stdout
		}
		if sink, err = NewSink(cfg.DataFile, cfg.FsyncData, mirror); err != nil {
			return res, err
		}
		defer func() {
			if errC := sink.Close(); errC != nil && err == nil {
				err = errC
			}
		}()
	}

	if cfg.Verbose > 0 || cfg.Mode == ModeInfo {
		p.report(dev, buf)
	}
	if cfg.Mode == ModeInfo {
		return res, nil
	}

	var cksum string
	if cfg.Verify {
		if cksum, err = blkdev.Checksum(cfg.Device, cos.ChecksumXXHash); err != nil {
			return res, err
		}
		p.infof("%s: xxhash %s", dev, cksum)
	}
	prev, errStats := ios.ReadDiskStats(cfg.Device)
	if errStats != nil {
		p.infof("%s: no kernel I/O statistics: %v", dev, errStats)
	}

	loop := newLoop(cfg, dev, buf, sink, p.tracker)
	res, err = loop.run()
	if err != nil {
		return res, err
	}
	p.logEnd(dev, sink, &res)

	if prev != nil {
		p.logDiskStats(dev, prev)
	}
	if cfg.Verify {
		after, err := blkdev.Checksum(cfg.Device, cos.ChecksumXXHash)
		if err != nil {
			return res, err
		}
		if after != cksum {
			return res, &ErrVerify{Path: cfg.Device, Before: cksum, After: after}
		}
		p.infof("%s: verified, content unchanged", dev)
	}
	if cfg.MetricsFile != "" {
		if err := p.tracker.WriteTextfile(cfg.MetricsFile); err != nil {
			return res, err
		}
	}
	p.infof("%s", p.tracker.Summary())
	return res, nil
}

func (p *Profiler) logEnd(dev *blkdev.Device, sink *Sink, res *Result) {
	switch res.Last.Kind {
	case EndOfDevice:
		p.infof("%s: end of device after %d op%s, %d byte%s in %v",
			dev, res.Ops, cos.Plural(res.Ops), res.Count, cos.Plural(res.Count), res.Elapsed)
	case Failed:
		nlog.Warningf("%s: %s stopped at offset %d: %v", dev, p.cfg.Mode, res.Count, res.Last.Err)
	}
	if res.Partial > 0 {
		p.infof("%s: trailing %d op%s not emitted (group size %d)",
			dev, res.Partial, cos.Plural(int64(res.Partial)), p.cfg.GroupSize)
	}
	if off, err := dev.Offset(); err != nil {
		nlog.Warningf("%s: failed to query final offset: %v", dev, err)
	} else if off != res.Count {
		nlog.Warningf("%s: final offset %d does not match %d transferred byte%s", dev, off, res.Count, cos.Plural(res.Count))
	}
	p.infof("%s: %d sample%s written to %s", dev, sink.Lines(), cos.Plural(sink.Lines()), sink.Path())
}

func (p *Profiler) logDiskStats(dev *blkdev.Device, prev *ios.DiskStats) {
	curr, err := ios.ReadDiskStats(p.cfg.Device)
	if err != nil {
		nlog.Warningf("%s: failed to re-read I/O statistics: %v", dev, err)
		return
	}
	delta := curr.Delta(prev)
	p.infof("%s: kernel observed %s", dev, delta)
	if p.cfg.Verify && delta.Writes() > 0 {
		nlog.Warningf("%s: %d write%s completed on the device during read-only run",
			dev, delta.Writes(), cos.Plural(delta.Writes()))
	}
}

func (p *Profiler) infof(format string, a ...any) {
	if p.cfg.Verbose > 0 {
		nlog.InfoDepth(1, fmt.Sprintf(format, a...))
	}
}
