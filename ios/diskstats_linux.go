// Package ios is a collection of interfaces to the local storage subsystem;
// the package includes OS-dependent implementations for those interfaces.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package ios

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/dprofiler/cmn/debug"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Based on:
// - https://www.kernel.org/doc/Documentation/iostats.txt
// - https://www.kernel.org/doc/Documentation/block/stat.txt
type DiskStats struct {
	ReadComplete  int64 // 1 - # of reads completed
	ReadMerged    int64 // 2 - # of reads merged
	ReadSectors   int64 // 3 - # of sectors read
	ReadMs        int64 // 4 - # ms spent reading
	WriteComplete int64 // 5 - # writes completed
	WriteMerged   int64 // 6 - # writes merged
	WriteSectors  int64 // 7 - # of sectors written
	WriteMs       int64 // 8 - # of milliseconds spent writing
	IOPending     int64 // 9 - # of I/Os currently in progress
	IOMs          int64 // 10 - # of milliseconds spent doing I/Os
	IOMsWeighted  int64 // 11 - weighted # of milliseconds spent doing I/Os
}

// The "sectors" in question are the standard UNIX 512-byte sectors, not any device- or filesystem-specific block size
// (from https://www.kernel.org/doc/Documentation/block/stat.txt)
const sectorSize = int64(512)

const numStatFields = 11

var (
	ErrNotBlock = errors.New("not a block device")

	sysBlockRoot = "/sys/dev/block"
)

// StatPath resolves the device node (following symlinks) and returns the
// sysfs statistics file that corresponds to its major:minor number.
func StatPath(devPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(devPath)
	if err != nil {
		return "", errors.Wrap(err, "diskstats")
	}
	var st unix.Stat_t
	if err := unix.Stat(resolved, &st); err != nil {
		return "", errors.Wrapf(err, "diskstats: stat %q", resolved)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return "", errors.Wrapf(ErrNotBlock, "diskstats: %q", resolved)
	}
	rdev := uint64(st.Rdev) //nolint:unconvert // arch-dependent type
	majmin := fmt.Sprintf("%d:%d", unix.Major(rdev), unix.Minor(rdev))
	return filepath.Join(sysBlockRoot, majmin, "stat"), nil
}

// ReadDiskStats returns the current kernel counters of the given block device.
func ReadDiskStats(devPath string) (*DiskStats, error) {
	sysfn, err := StatPath(devPath)
	if err != nil {
		return nil, err
	}
	return readStatFile(sysfn)
}

func readStatFile(sysfn string) (*DiskStats, error) {
	file, err := os.Open(sysfn)
	if err != nil {
		return nil, errors.Wrap(err, "diskstats")
	}
	scanner := bufio.NewScanner(file)
	scanner.Scan()
	fields := strings.Fields(scanner.Text())
	_ = file.Close()

	if len(fields) < numStatFields {
		return nil, errors.Errorf("diskstats: %q: expecting at least %d fields, got %d", sysfn, numStatFields, len(fields))
	}
	var vals [numStatFields]int64
	for i := range vals {
		if vals[i], err = strconv.ParseInt(fields[i], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "diskstats: %q field %d", sysfn, i+1)
		}
	}
	return &DiskStats{
		vals[0], vals[1], vals[2], vals[3], vals[4], vals[5],
		vals[6], vals[7], vals[8], vals[9], vals[10],
	}, nil
}

// Delta returns the difference (ds - prev) of the cumulative counters;
// IOPending is a gauge and is taken as is.
func (ds *DiskStats) Delta(prev *DiskStats) *DiskStats {
	debug.Assert(prev != nil)
	return &DiskStats{
		ReadComplete:  ds.ReadComplete - prev.ReadComplete,
		ReadMerged:    ds.ReadMerged - prev.ReadMerged,
		ReadSectors:   ds.ReadSectors - prev.ReadSectors,
		ReadMs:        ds.ReadMs - prev.ReadMs,
		WriteComplete: ds.WriteComplete - prev.WriteComplete,
		WriteMerged:   ds.WriteMerged - prev.WriteMerged,
		WriteSectors:  ds.WriteSectors - prev.WriteSectors,
		WriteMs:       ds.WriteMs - prev.WriteMs,
		IOPending:     ds.IOPending,
		IOMs:          ds.IOMs - prev.IOMs,
		IOMsWeighted:  ds.IOMsWeighted - prev.IOMsWeighted,
	}
}

func (ds *DiskStats) Reads() int64      { return ds.ReadComplete }
func (ds *DiskStats) ReadBytes() int64  { return ds.ReadSectors * sectorSize }
func (ds *DiskStats) Writes() int64     { return ds.WriteComplete }
func (ds *DiskStats) WriteBytes() int64 { return ds.WriteSectors * sectorSize }

func (ds *DiskStats) String() string {
	return fmt.Sprintf("reads %d (%dB, %dms), writes %d (%dB, %dms), io %dms",
		ds.ReadComplete, ds.ReadBytes(), ds.ReadMs, ds.WriteComplete, ds.WriteBytes(), ds.WriteMs, ds.IOMs)
}
