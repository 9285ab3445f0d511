// Package blkdev opens and probes the block device (or file) under test.
/*
 * Copyright (c) 2021-2026, NVIDIA CORPORATION. All rights reserved.
 */
package blkdev

import (
	"fmt"
	"io"
	"os"

	"github.com/NVIDIA/dprofiler/cmn/cos"

	"github.com/ncw/directio"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const checksumBufSize = 4 * cos.MiB

type (
	// Device is an open descriptor with direct (O_DIRECT) access.
	// Read and Write map onto exactly one system call each.
	Device struct {
		file *os.File
		path string
		geo  Geometry
		size int64
		off  int64
		fd   int
	}
	Geometry struct {
		LogicalSector  int
		PhysicalSector int
		IsBlock        bool
	}

	ErrOpen struct {
		Path  string
		Flags int
		Err   error
	}
	ErrSeek struct {
		Path   string
		Whence int
		Err    error
	}
)

////////////
// errors //
////////////

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("failed to open device %q (flags %#x): %v", e.Path, e.Flags, e.Err)
}

func (e *ErrOpen) Unwrap() error { return e.Err }

func (e *ErrSeek) Error() string {
	where := "start"
	if e.Whence == io.SeekEnd {
		where = "eof"
	}
	return fmt.Sprintf("failed to reposition %q offset to %s: %v", e.Path, where, e.Err)
}

func (e *ErrSeek) Unwrap() error { return e.Err }

////////////
// Device //
////////////

// Open opens the device for direct read/write access, determines its size,
// and leaves the offset at zero. Errors are *ErrOpen or *ErrSeek.
func Open(path string, sync bool) (*Device, error) {
	flag := os.O_RDWR | unix.O_LARGEFILE
	if sync {
		flag |= os.O_SYNC
	}
	file, err := directio.OpenFile(path, flag, 0)
	if err != nil {
		return nil, &ErrOpen{Path: path, Flags: flag | unix.O_DIRECT, Err: err}
	}
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, &ErrSeek{Path: path, Whence: io.SeekEnd, Err: err}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, &ErrSeek{Path: path, Whence: io.SeekStart, Err: err}
	}
	d := &Device{file: file, path: path, size: size, fd: int(file.Fd())}
	d.geo = d.probeGeometry()
	return d, nil
}

func (d *Device) Path() string       { return d.path }
func (d *Device) Size() int64        { return d.size }
func (d *Device) Fd() int            { return d.fd }
func (d *Device) Geometry() Geometry { return d.geo }

// Offset returns the kernel's current file offset.
func (d *Device) Offset() (int64, error) {
	return unix.Seek(d.fd, 0, io.SeekCurrent)
}

// Read issues one read(2) of len(p) bytes at the current offset and returns
// the raw result: short, 0 at end of device, or -1 with the error.
func (d *Device) Read(p []byte) (n int, err error) {
	n, err = unix.Read(d.fd, p)
	if n > 0 {
		d.off += int64(n)
	}
	return
}

// Write issues one write(2) of len(p) bytes at the current offset.
// A regular file never grows: the last write is trimmed to the remaining
// aligned tail, and the file is full once nothing aligned remains.
// Block devices report the end themselves (ENOSPC).
func (d *Device) Write(p []byte) (n int, err error) {
	if !d.geo.IsBlock {
		if remain := d.size - d.off; remain < int64(len(p)) {
			remain -= remain % directio.AlignSize
			if remain <= 0 {
				return 0, nil
			}
			p = p[:remain]
		}
	}
	n, err = unix.Write(d.fd, p)
	if n > 0 {
		d.off += int64(n)
	}
	return
}

func (d *Device) Close() error { return d.file.Close() }

func (d *Device) probeGeometry() (g Geometry) {
	var st unix.Stat_t
	if err := unix.Fstat(d.fd, &st); err != nil || st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return
	}
	g.IsBlock = true
	g.LogicalSector, _ = unix.IoctlGetInt(d.fd, unix.BLKSSZGET)
	g.PhysicalSector, _ = unix.IoctlGetInt(d.fd, unix.BLKPBSZGET)
	return
}

func (d *Device) String() string {
	kind := "file"
	if d.geo.IsBlock {
		kind = "blkdev"
	}
	return fmt.Sprintf("%s[%s, %s]", kind, d.path, cos.ToSizeIEC(d.size, 2))
}

// Checksum reads the entire device through the page cache and returns
// the checksum of its contents.
func Checksum(path, cksumType string) (string, error) {
	if !cos.ValidateCksumType(cksumType) {
		return "", errors.Errorf("invalid checksum type %q", cksumType)
	}
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "checksum")
	}
	defer file.Close()

	var (
		ck  = cos.NewCksumHash(cksumType)
		buf = make([]byte, checksumBufSize)
	)
	if _, err := io.CopyBuffer(ck.H, file, buf); err != nil {
		return "", errors.Wrapf(err, "checksum %q", path)
	}
	ck.Finalize()
	return ck.Value(), nil
}
