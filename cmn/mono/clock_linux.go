// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import (
	"golang.org/x/sys/unix"
)

// Stamp is a raw clock reading, kept as separate seconds and nanoseconds
// so that differences never go through a single combined conversion.
type Stamp struct {
	Sec  int64
	Nsec int64
}

// resolved once: CLOCK_MONOTONIC_RAW is not subject to NTP slewing
var clockID = resolveClock()

func resolveClock() int32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err == nil {
		return unix.CLOCK_MONOTONIC_RAW
	}
	return unix.CLOCK_MONOTONIC
}

func ClockName() string {
	if clockID == unix.CLOCK_MONOTONIC_RAW {
		return "CLOCK_MONOTONIC_RAW"
	}
	return "CLOCK_MONOTONIC"
}

func Now() Stamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(clockID, &ts); err != nil {
		// cannot happen once resolveClock succeeded; runtime clock is the same source
		n := NanoTime()
		return Stamp{Sec: n / int64(1e9), Nsec: n % int64(1e9)}
	}
	return Stamp{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}

// Usec returns t2 - t1 in whole microseconds; each stamp is truncated
// to microseconds before subtracting.
func Usec(t1, t2 Stamp) int64 {
	return (t2.Sec-t1.Sec)*1_000_000 + (t2.Nsec/1000 - t1.Nsec/1000)
}
