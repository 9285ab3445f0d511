// Package stats provides methods and functionality to register, track, log,
// and export metrics of a profiling run.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/debug"
	"github.com/NVIDIA/dprofiler/cmn/mono"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/mapping"
	"github.com/DataDog/sketches-go/ddsketch/store"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/teris-io/shortid"
)

const (
	namespace = "dprofiler"

	// relative accuracy of the sample quantiles
	sketchAlpha = 0.01
)

// NOTE: `shortid` uses hardcoded 01/2016 as a starting timestamp
const runABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

// Tracker accumulates per-operation and per-sample statistics of a single run.
// Not thread-safe: the I/O loop is the only caller.
type Tracker struct {
	reg *prometheus.Registry

	bytes   prometheus.Counter
	ops     prometheus.Counter
	samples prometheus.Counter
	latency prometheus.Histogram
	devSize prometheus.Gauge

	sketch *ddsketch.DDSketch

	runID string
	mode  string

	// mirrors (prometheus does not expose values cheaply)
	nbytes   int64
	nops     int64
	nsamples int64
	usec     int64
	dropped  int64
}

var sid *shortid.Shortid

func init() {
	sid = shortid.MustNew(1 /*worker*/, runABC, uint64(mono.NanoTime()))
}

// NewRunID generates a short, user-friendly run identifier.
func NewRunID() string {
	for range 4 {
		id, err := sid.Generate()
		if err == nil && id[0] != '-' && id[0] != '_' && id[len(id)-1] != '-' && id[len(id)-1] != '_' {
			return id
		}
	}
	return fmt.Sprintf("r%x", mono.NanoTime())
}

func New(runID, mode string) *Tracker {
	var (
		labels = prometheus.Labels{"run": runID, "mode": mode}
		t      = &Tracker{reg: prometheus.NewRegistry(), runID: runID, mode: mode}
	)
	t.bytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "bytes_total",
		Help:        "Total number of bytes transferred",
		ConstLabels: labels,
	})
	t.ops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "ops_total",
		Help:        "Total number of completed I/O operations",
		ConstLabels: labels,
	})
	t.samples = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "samples_total",
		Help:        "Total number of emitted samples",
		ConstLabels: labels,
	})
	t.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "op_latency_microseconds",
		Help:        "Latency of a single I/O operation",
		Buckets:     prometheus.ExponentialBuckets(10, 2, 20),
		ConstLabels: labels,
	})
	t.devSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "device_size_bytes",
		Help:        "Size of the device under test",
		ConstLabels: labels,
	})
	t.reg.MustRegister(t.bytes, t.ops, t.samples, t.latency, t.devSize)

	m, err := mapping.NewLogarithmicMapping(sketchAlpha)
	debug.AssertNoErr(err)
	t.sketch = ddsketch.NewDDSketch(m, store.NewDenseStore(), store.NewDenseStore())
	return t
}

func (t *Tracker) Registry() *prometheus.Registry { return t.reg }
func (t *Tracker) RunID() string                  { return t.runID }

func (t *Tracker) Bytes() int64   { return t.nbytes }
func (t *Tracker) Ops() int64     { return t.nops }
func (t *Tracker) Samples() int64 { return t.nsamples }

func (t *Tracker) SetDeviceSize(size int64) { t.devSize.Set(float64(size)) }

// ObserveOp records one completed I/O operation.
func (t *Tracker) ObserveOp(n int, usec int64) {
	t.nbytes += int64(n)
	t.nops++
	t.usec += usec
	t.bytes.Add(float64(n))
	t.ops.Inc()
	t.latency.Observe(float64(usec))
}

// ObserveSample records one emitted group value (microseconds or rate).
// Values the sketch cannot index (e.g. +Inf) are counted but not tracked.
func (t *Tracker) ObserveSample(value float64) {
	t.nsamples++
	t.samples.Inc()
	if math.IsInf(value, 0) || math.IsNaN(value) {
		t.dropped++
		return
	}
	if err := t.sketch.Add(value); err != nil {
		t.dropped++
	}
}

// Quantile returns the q-quantile (0 <= q <= 1) of the observed sample values.
func (t *Tracker) Quantile(q float64) (float64, error) {
	if t.sketch.IsEmpty() {
		return 0, errors.New("no samples")
	}
	return t.sketch.GetValueAtQuantile(q)
}

// Summary returns a one-line human-readable digest of the run.
func (t *Tracker) Summary() string {
	var sb strings.Builder
	sb.Grow(128)
	fmt.Fprintf(&sb, "run %s (%s): %d op%s, %s, %d sample%s",
		t.runID, t.mode, t.nops, cos.Plural(t.nops), cos.ToSizeIEC(t.nbytes, 2), t.nsamples, cos.Plural(t.nsamples))
	if t.usec > 0 {
		mibps := float64(t.nbytes) / float64(cos.MiB) / (float64(t.usec) / 1e6)
		fmt.Fprintf(&sb, ", %.2f MiB/s", mibps)
	}
	if !t.sketch.IsEmpty() {
		vals, err := t.sketch.GetValuesAtQuantiles([]float64{0.5, 0.9, 0.99})
		if err == nil {
			fmt.Fprintf(&sb, ", p50 %.3f p90 %.3f p99 %.3f", vals[0], vals[1], vals[2])
		}
	}
	if t.dropped > 0 {
		fmt.Fprintf(&sb, " (%d untracked)", t.dropped)
	}
	return sb.String()
}

// WriteTextfile exports all metrics in the Prometheus text format
// (node_exporter textfile collector).
func (t *Tracker) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, t.reg); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %q", path)
	}
	return nil
}
