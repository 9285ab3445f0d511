// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"fmt"
)

type (
	ErrConfig struct {
		Field  string
		Reason string
		Err    error
	}
	ErrOutput struct {
		Path string
		Op   string
		Err  error
	}
	ErrIO struct {
		Mode   Mode
		Offset int64
		Err    error
	}
	ErrVerify struct {
		Path   string
		Before string
		After  string
	}
)

func newErrConfig(field, format string, a ...any) *ErrConfig {
	return &ErrConfig{Field: field, Reason: fmt.Sprintf(format, a...)}
}

func (e *ErrConfig) Error() string {
	s := "invalid configuration"
	if e.Field != "" {
		s += " (" + e.Field + ")"
	}
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ErrConfig) Unwrap() error { return e.Err }

func (e *ErrOutput) Error() string {
	return fmt.Sprintf("failed to %s data file %q: %v", e.Op, e.Path, e.Err)
}

func (e *ErrOutput) Unwrap() error { return e.Err }

func (e *ErrIO) Error() string {
	return fmt.Sprintf("%s failed at offset %d: %v", e.Mode, e.Offset, e.Err)
}

func (e *ErrIO) Unwrap() error { return e.Err }

func (e *ErrVerify) Error() string {
	return fmt.Sprintf("device %q content changed during read-only run (xxhash %s => %s)", e.Path, e.Before, e.After)
}
