// Package nlog - dprofiler logger, provides buffering, timestamping, writing, and
// flushing/rotating
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"time"
)

var (
	MaxSize int64 = 4 * 1024 * 1024

	// buffered lines older than this are written out regardless of size
	FlushInterval = 5 * time.Second
)

// InitFlags registers logging flags with the given set. With an empty
// -logdir everything goes to standard error.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
	flset.StringVar(&logDir, "logdir", "", "directory for log files (default: log to standard error)")
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

func SetTitle(s string) { title = s }

// Flush hands off whatever is buffered to the file writers.
func Flush() {
	for _, nlog := range nlogs {
		if nlog != nil {
			nlog.flush(false)
		}
	}
}

func FlushExit() {
	stopping.Store(true)
	for _, nlog := range nlogs {
		if nlog != nil {
			nlog.flush(true)
		}
	}
}
