// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"time"

	"github.com/NVIDIA/dprofiler/cmn/debug"
	"github.com/NVIDIA/dprofiler/cmn/mono"
	"github.com/NVIDIA/dprofiler/memsys"
	"github.com/NVIDIA/dprofiler/stats"
)

type (
	// target is the device under test: each call is exactly one system call
	target interface {
		Read(p []byte) (int, error)
		Write(p []byte) (int, error)
	}
	emitter interface {
		Emit(*Sample) error
	}

	// Result is the final report of a completed (or failed) loop.
	Result struct {
		Last    Outcome       // terminating outcome
		Count   int64         // bytes transferred, including the trailing partial group
		Ops     int64         // completed operations
		Samples int64         // emitted samples
		Partial int           // operations in the trailing group (never emitted)
		Elapsed time.Duration // wall time of the loop
	}

	ioLoop struct {
		dev     target
		sink    emitter
		tracker *stats.Tracker
		now     func() mono.Stamp
		buf     *memsys.Aligned
		agg     aggregator
		mode    Mode
		strict  bool
	}
)

func newLoop(cfg *Config, dev target, buf *memsys.Aligned, sink emitter, tracker *stats.Tracker) *ioLoop {
	debug.Assert(cfg.Mode == ModeRead || cfg.Mode == ModeWrite, cfg.Mode)
	debug.Assert(int64(buf.Len()) == int64(cfg.BufSize))
	return &ioLoop{
		dev:     dev,
		sink:    sink,
		tracker: tracker,
		now:     mono.Now,
		buf:     buf,
		agg:     aggregator{groupSize: cfg.GroupSize, bufSize: int64(cfg.BufSize), unit: cfg.Unit},
		mode:    cfg.Mode,
		strict:  cfg.Strict,
	}
}

func (l *ioLoop) do() (int, error) {
	if l.mode == ModeWrite {
		return l.dev.Write(l.buf.Bytes())
	}
	return l.dev.Read(l.buf.Bytes())
}

// run performs timed operations until the device is exhausted or an
// operation fails.
func (l *ioLoop) run() (res Result, err error) {
	var (
		groupSize       = l.agg.groupSize
		gcount          = groupSize
		gstart, timeacc int64
		started         = mono.NanoTime()
	)
	for {
		// zeros are also the write payload
		l.buf.Zero()

		t1 := l.now()
		n, errIO := l.do()
		t2 := l.now()

		out := classify(l.mode, n, errIO)
		if out.Kind != Transferred {
			res.Last = out
			break
		}
		elapsed := mono.Usec(t1, t2)
		res.Count += int64(n)
		res.Ops++
		timeacc += elapsed
		l.tracker.ObserveOp(n, elapsed)

		gcount--
		if gcount > 0 {
			continue
		}
		smpl := l.agg.sample(gstart, timeacc)
		if err = l.sink.Emit(&smpl); err != nil {
			res.Partial = groupSize
			res.Last = out
			res.Elapsed = mono.Since(started)
			return res, err
		}
		res.Samples++
		l.tracker.ObserveSample(smpl.Value())

		gcount = groupSize
		gstart = res.Count
		timeacc = 0
	}
	res.Partial = groupSize - gcount
	res.Elapsed = mono.Since(started)

	if res.Last.Kind == Failed && l.strict {
		err = &ErrIO{Mode: l.mode, Offset: res.Count, Err: res.Last.Err}
	}
	return res, err
}
