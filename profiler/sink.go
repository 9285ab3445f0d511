// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"io"
	"os"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/nlog"
)

// Sink appends samples to the data file, one write(2) per line.
type Sink struct {
	file   *os.File
	mirror io.Writer // nil unless verbose >= 2
	path   string
	line   []byte
	lines  int64
	fsync  bool
}

// NewSink creates (or truncates) the data file.
func NewSink(path string, fsync bool, mirror io.Writer) (*Sink, error) {
	file, err := cos.CreateFile(path)
	if err != nil {
		return nil, &ErrOutput{Path: path, Op: "open", Err: err}
	}
	return &Sink{file: file, path: path, fsync: fsync, mirror: mirror, line: make([]byte, 0, 64)}, nil
}

func (s *Sink) Emit(smpl *Sample) error {
	s.line = smpl.AppendLine(s.line[:0])
	if _, err := s.file.Write(s.line); err != nil {
		return &ErrOutput{Path: s.path, Op: "write", Err: err}
	}
	if s.fsync {
		if err := cos.Fflush(s.file); err != nil {
			return &ErrOutput{Path: s.path, Op: "sync", Err: err}
		}
	}
	s.lines++
	if s.mirror != nil {
		if _, err := s.mirror.Write(s.line); err != nil {
			// the data file stays authoritative; stop echoing
			nlog.Warningf("%s: console mirror failed, no longer echoing samples: %v", s.path, err)
			s.mirror = nil
		}
	}
	return nil
}

func (s *Sink) Path() string { return s.path }
func (s *Sink) Lines() int64 { return s.lines }

func (s *Sink) Close() error {
	if err := s.file.Close(); err != nil {
		return &ErrOutput{Path: s.path, Op: "close", Err: err}
	}
	return nil
}
