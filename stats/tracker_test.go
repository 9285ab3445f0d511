// Package stats provides methods and functionality to register, track, log,
// and export metrics of a profiling run.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NVIDIA/dprofiler/stats"
	"github.com/NVIDIA/dprofiler/tools/tassert"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRunID(t *testing.T) {
	ids := make(map[string]struct{}, 100)
	for range 100 {
		id := stats.NewRunID()
		tassert.Fatalf(t, id != "", "empty run ID")
		ids[id] = struct{}{}
	}
	tassert.Errorf(t, len(ids) == 100, "duplicate run IDs: %d unique", len(ids))
}

func TestTrackerCounters(t *testing.T) {
	tr := stats.New("test", "read")
	tr.SetDeviceSize(10 << 20)
	for i := range 10 {
		tr.ObserveOp(1<<20, int64(100+i))
	}
	for _, v := range []float64{300, 330, 360} {
		tr.ObserveSample(v)
	}
	tassert.Errorf(t, tr.Ops() == 10 && tr.Bytes() == 10<<20 && tr.Samples() == 3,
		"ops %d, bytes %d, samples %d", tr.Ops(), tr.Bytes(), tr.Samples())

	n, err := testutil.GatherAndCount(tr.Registry())
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, n == 5, "expecting 5 metrics, got %d", n)

	expected := `
# HELP dprofiler_bytes_total Total number of bytes transferred
# TYPE dprofiler_bytes_total counter
dprofiler_bytes_total{mode="read",run="test"} 1.048576e+07
# HELP dprofiler_ops_total Total number of completed I/O operations
# TYPE dprofiler_ops_total counter
dprofiler_ops_total{mode="read",run="test"} 10
# HELP dprofiler_samples_total Total number of emitted samples
# TYPE dprofiler_samples_total counter
dprofiler_samples_total{mode="read",run="test"} 3
# HELP dprofiler_device_size_bytes Size of the device under test
# TYPE dprofiler_device_size_bytes gauge
dprofiler_device_size_bytes{mode="read",run="test"} 1.048576e+07
`
	err = testutil.GatherAndCompare(tr.Registry(), strings.NewReader(expected),
		"dprofiler_bytes_total", "dprofiler_ops_total", "dprofiler_samples_total", "dprofiler_device_size_bytes")
	tassert.CheckError(t, err)
}

func TestTrackerQuantile(t *testing.T) {
	tr := stats.New("q", "write")
	_, err := tr.Quantile(0.5)
	tassert.Errorf(t, err != nil, "expecting error on empty sketch")

	for i := 1; i <= 1000; i++ {
		tr.ObserveSample(float64(i))
	}
	p50, err := tr.Quantile(0.5)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, math.Abs(p50-500) <= 500*0.02, "p50 %f out of range", p50)
	p99, err := tr.Quantile(0.99)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, math.Abs(p99-990) <= 990*0.02, "p99 %f out of range", p99)
}

func TestTrackerInf(t *testing.T) {
	tr := stats.New("inf", "read")
	tr.ObserveSample(math.Inf(1))
	tr.ObserveSample(42)
	tassert.Errorf(t, tr.Samples() == 2, "expecting 2 samples, got %d", tr.Samples())
	s := tr.Summary()
	tassert.Errorf(t, strings.Contains(s, "1 untracked"), "summary %q", s)
}

func TestTrackerSummary(t *testing.T) {
	tr := stats.New("sum", "read")
	tr.ObserveOp(1<<20, 1_000_000)
	tr.ObserveSample(1_000_000)
	s := tr.Summary()
	for _, sub := range []string{"run sum (read)", "1 op,", "1.00MiB", "1 sample", "1.00 MiB/s", "p50"} {
		tassert.Errorf(t, strings.Contains(s, sub), "summary %q: missing %q", s, sub)
	}
}

func TestWriteTextfile(t *testing.T) {
	tr := stats.New("tf", "read")
	tr.ObserveOp(4096, 12)
	fn := filepath.Join(t.TempDir(), "dprofiler.prom")
	tassert.CheckFatal(t, tr.WriteTextfile(fn))

	b, err := os.ReadFile(fn)
	tassert.CheckFatal(t, err)
	for _, sub := range []string{`dprofiler_ops_total{mode="read",run="tf"} 1`, "dprofiler_op_latency_microseconds_bucket"} {
		tassert.Errorf(t, strings.Contains(string(b), sub), "textfile: missing %q", sub)
	}

	err = tr.WriteTextfile(filepath.Join(t.TempDir(), "no", "such", "dir", "x.prom"))
	tassert.Errorf(t, err != nil, "expecting error writing to a missing directory")
}
