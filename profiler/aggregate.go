// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler

import (
	"math"
	"strconv"
)

const offsetWidth = 13

// Sample is one completed group: its starting offset and either the
// accumulated microseconds or the resulting rate.
type Sample struct {
	Offset int64
	Usec   int64
	Rate   float64
	Unit   Unit
}

type aggregator struct {
	groupSize int
	bufSize   int64
	unit      Unit
}

// sample closes a group that started at gstart and took timeacc microseconds.
func (a *aggregator) sample(gstart, timeacc int64) Sample {
	return Sample{Offset: gstart, Usec: timeacc, Rate: a.rate(timeacc), Unit: a.unit}
}

// rate is the nominal group volume (group size times buffer size) over the
// accumulated time, in bytes per microsecond.
func (a *aggregator) rate(timeacc int64) float64 {
	if timeacc == 0 {
		return math.Inf(1)
	}
	return float64(int64(a.groupSize)*a.bufSize) / float64(timeacc)
}

func (s *Sample) Value() float64 {
	if s.Unit == UnitRate {
		return s.Rate
	}
	return float64(s.Usec)
}

// AppendLine formats the sample as `%013d <usec | %f>\n`.
func (s *Sample) AppendLine(b []byte) []byte {
	var (
		num [20]byte
		off = strconv.AppendInt(num[:0], s.Offset, 10)
	)
	for i := len(off); i < offsetWidth; i++ {
		b = append(b, '0')
	}
	b = append(b, off...)
	b = append(b, ' ')
	if s.Unit == UnitRate {
		if math.IsInf(s.Rate, 1) {
			return append(b, "+Inf\n"...)
		}
		b = strconv.AppendFloat(b, s.Rate, 'f', 6, 64)
	} else {
		b = strconv.AppendInt(b, s.Usec, 10)
	}
	return append(b, '\n')
}

func (s *Sample) String() string { return string(s.AppendLine(nil)) }
