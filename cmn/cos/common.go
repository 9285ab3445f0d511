// Package cos provides common low-level types and utilities for all dprofiler packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"os"

	"github.com/NVIDIA/dprofiler/cmn/nlog"
)

//////////////////////////
// Abnormal Termination //
//////////////////////////

// Exitf writes formatted message to STDERR and exits with non-zero status code.
func Exitf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f, a...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// ExitLogf is wrapper around `Exitf` with `nlog` logging. It should be used
// instead `Exitf` if the `nlog` was initialized.
func ExitLogf(f string, a ...any) {
	nlog.Errorf("FATAL ERROR: "+f, a...)
	nlog.FlushExit()
	Exitf(f, a...)
}

func Plural(num int64) (s string) {
	if num != 1 {
		s = "s"
	}
	return
}
