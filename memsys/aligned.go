// Package memsys provides page-aligned memory for direct (unbuffered) I/O.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"errors"
	"fmt"
	"math"
	"os"
	"unsafe"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/debug"

	"golang.org/x/sys/unix"
)

// Aligned is a single anonymous mapping; the kernel hands out mappings
// at page boundaries, which is what O_DIRECT requires of user memory.
// Not safe for concurrent use.
type Aligned struct {
	buf []byte
}

type ErrAlloc struct {
	Size     int64
	PageSize int
	Err      error
}

var errInvalidSize = errors.New("invalid size")

func (e *ErrAlloc) Error() string {
	return fmt.Sprintf("failed to allocate %d-byte buffer aligned at %d: %v", e.Size, e.PageSize, e.Err)
}

func (e *ErrAlloc) Unwrap() error { return e.Err }

func PageSize() int { return os.Getpagesize() }

func NewAligned(size int64) (*Aligned, error) {
	psize := PageSize()
	if size <= 0 || size > math.MaxInt {
		return nil, &ErrAlloc{Size: size, PageSize: psize, Err: errInvalidSize}
	}
	buf, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &ErrAlloc{Size: size, PageSize: psize, Err: err}
	}
	a := &Aligned{buf: buf}
	debug.Assertf(a.Addr()%uintptr(psize) == 0, "%#x not aligned at %d", a.Addr(), psize)
	return a, nil
}

func (a *Aligned) Bytes() []byte { return a.buf }
func (a *Aligned) Len() int      { return len(a.buf) }

func (a *Aligned) Addr() uintptr {
	if a.buf == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
}

func (a *Aligned) Zero() { clear(a.buf) }

// Close unmaps the buffer; subsequent calls are no-ops.
func (a *Aligned) Close() (err error) {
	if a.buf != nil {
		err = unix.Munmap(a.buf)
		a.buf = nil
	}
	return
}

func (a *Aligned) String() string {
	return fmt.Sprintf("aligned[%#x, %s]", a.Addr(), cos.ToSizeIEC(int64(len(a.buf)), 0))
}
