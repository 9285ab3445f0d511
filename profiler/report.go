// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/NVIDIA/dprofiler/blkdev"
	"github.com/NVIDIA/dprofiler/cmn/mono"
	"github.com/NVIDIA/dprofiler/memsys"
)

const Progname = "Disk Throughput Profiler"

// Banner writes the program title framed by dashes.
func Banner(w io.Writer) {
	dashes := strings.Repeat("-", len(Progname))
	fmt.Fprintf(w, "%s\n%s\n%s\n", dashes, Progname, dashes)
}

// report prints what was probed and allocated, and how the run is set up.
func (p *Profiler) report(dev *blkdev.Device, buf *memsys.Aligned) {
	w := p.Stderr
	Banner(w)
	fmt.Fprintf(w, "Device %q has %d bytes\n", dev.Path(), dev.Size())
	if geo := dev.Geometry(); geo.IsBlock {
		fmt.Fprintf(w, "Logical sector is %d bytes, physical sector is %d bytes.\n", geo.LogicalSector, geo.PhysicalSector)
	}
	fmt.Fprintf(w, "System pagesize is %d bytes long.\n", memsys.PageSize())
	fmt.Fprintf(w, "Got aligned buffer at %#x.\n", buf.Addr())
	fmt.Fprintf(w, "Buffer is %d bytes long.\n", buf.Len())
	fmt.Fprintf(w, "Grouped at every %d outputs.\n", p.cfg.GroupSize)
	fmt.Fprintf(w, "Datafile is %q.\n", p.cfg.DataFile)
	if p.cfg.Verbose > 0 {
		fmt.Fprintf(w, "Mode is %s, output in %s, clock is %s, run %s.\n",
			p.cfg.Mode, p.cfg.Unit, mono.ClockName(), p.tracker.RunID())
	}
	fmt.Fprintln(w, strings.Repeat("-", 42))
}
