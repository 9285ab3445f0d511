// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

type OutcomeKind int

const (
	Transferred OutcomeKind = iota
	EndOfDevice
	Failed
)

// Outcome is the classified result of a single I/O operation.
// N is set only when Transferred, Err only when Failed.
type Outcome struct {
	Err  error
	Kind OutcomeKind
	N    int
}

func classify(mode Mode, n int, err error) Outcome {
	switch {
	case n > 0:
		return Outcome{Kind: Transferred, N: n}
	case n == 0 && err == nil:
		return Outcome{Kind: EndOfDevice}
	case mode == ModeWrite && errors.Is(err, unix.ENOSPC):
		return Outcome{Kind: EndOfDevice}
	case err == nil:
		err = fmt.Errorf("%s returned %d", mode, n)
	}
	return Outcome{Kind: Failed, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Transferred:
		return fmt.Sprintf("transferred(%d)", o.N)
	case EndOfDevice:
		return "end-of-device"
	default:
		return fmt.Sprintf("failed(%v)", o.Err)
	}
}
