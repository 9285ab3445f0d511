// Package profiler implements the timed direct-I/O measurement loop:
// device probing, grouping of consecutive operations, and sample output.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package profiler_test

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/dprofiler/blkdev"
	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/profiler"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"
)

const devSize = 10 * cos.MiB

// directDir returns a directory on a filesystem that accepts O_DIRECT
func directDir() string {
	for _, parent := range []string{os.TempDir(), "."} {
		dir, err := os.MkdirTemp(parent, "dprofiler-")
		Expect(err).NotTo(HaveOccurred())
		probe := filepath.Join(dir, "probe")
		Expect(os.WriteFile(probe, make([]byte, cos.MiB), cos.PermRWRR)).To(Succeed())
		dev, err := blkdev.Open(probe, false)
		if err == nil {
			dev.Close()
			os.Remove(probe)
			return dir
		}
		os.RemoveAll(dir)
		Expect(errors.Is(err, unix.EINVAL)).To(BeTrue(), "%v", err)
	}
	Skip("direct I/O is not supported by the underlying filesystem")
	return ""
}

func readLines(path string) []string {
	file, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer file.Close()
	var (
		lines   []string
		scanner = bufio.NewScanner(file)
	)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	Expect(scanner.Err()).NotTo(HaveOccurred())
	return lines
}

var _ = Describe("Profiler", func() {
	var (
		dir      string
		device   string
		datafile string
		stderr   *bytes.Buffer
		stdout   *bytes.Buffer
	)

	newProfiler := func(cfg *profiler.Config) *profiler.Profiler {
		p, err := profiler.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		p.Stdout, p.Stderr = stdout, stderr
		return p
	}

	BeforeEach(func() {
		dir = directDir()
		device = filepath.Join(dir, "device")
		datafile = filepath.Join(dir, "out.dat")
		stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}

		data := make([]byte, devSize)
		for i := range data {
			data[i] = byte(i % 251)
		}
		Expect(os.WriteFile(device, data, cos.PermRWRR)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Describe("read", func() {
		It("should emit one line per buffer", func() {
			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeRead, BufSize: cos.MiB, GroupSize: 1, DataFile: datafile,
			})
			res, err := p.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Last.Kind).To(Equal(profiler.EndOfDevice))
			Expect(res.Ops).To(BeEquivalentTo(10))
			Expect(res.Count).To(BeEquivalentTo(devSize))
			Expect(res.Samples).To(BeEquivalentTo(10))

			lines := readLines(datafile)
			Expect(lines).To(HaveLen(10))
			for i, line := range lines {
				fields := strings.Fields(line)
				Expect(fields).To(HaveLen(2))
				Expect(fields[0]).To(Equal(fmt.Sprintf("%013d", i*cos.MiB)))
				usec, err := strconv.ParseInt(fields[1], 10, 64)
				Expect(err).NotTo(HaveOccurred())
				Expect(usec).To(BeNumerically(">=", 0))
			}
			Expect(stdout.Len()).To(BeZero())
			Expect(stderr.Len()).To(BeZero())
		})

		It("should group and drop the trailing partial group", func() {
			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeRead, BufSize: cos.MiB, GroupSize: 3, DataFile: datafile,
				Unit: profiler.UnitRate, Verbose: 2,
			})
			res, err := p.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Samples).To(BeEquivalentTo(3))
			Expect(res.Partial).To(Equal(1))
			Expect(res.Count).To(BeEquivalentTo(devSize))

			lines := readLines(datafile)
			Expect(lines).To(Equal(strings.Split(strings.TrimSpace(stdout.String()), "\n")))
			Expect(lines).To(HaveLen(3))
			for i, line := range lines {
				fields := strings.Fields(line)
				Expect(fields[0]).To(Equal(fmt.Sprintf("%013d", 3*i*cos.MiB)))
				Expect(fields[1]).To(MatchRegexp(`^(\d+\.\d{6}|\+Inf)$`))
			}
			Expect(stderr.String()).To(ContainSubstring("Grouped at every 3 outputs."))
		})

		It("should not modify the device and pass verification", func() {
			before, err := blkdev.Checksum(device, cos.ChecksumXXHash)
			Expect(err).NotTo(HaveOccurred())
			metrics := filepath.Join(dir, "dprofiler.prom")

			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeRead, BufSize: 2 * cos.MiB, GroupSize: 1, DataFile: datafile,
				Verify: true, MetricsFile: metrics, FsyncData: true,
			})
			_, err = p.Run()
			Expect(err).NotTo(HaveOccurred())

			after, err := blkdev.Checksum(device, cos.ChecksumXXHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))

			Expect(readLines(datafile)).To(HaveLen(5))
			b, err := os.ReadFile(metrics)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(ContainSubstring("dprofiler_ops_total"))
			Expect(p.Tracker().Bytes()).To(BeEquivalentTo(devSize))
		})
	})

	Describe("write", func() {
		It("should overwrite the device with zeros", func() {
			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeWrite, BufSize: cos.MiB, GroupSize: 2, DataFile: datafile,
				WriteZeros: true,
			})
			res, err := p.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Last.Kind).To(Equal(profiler.EndOfDevice))
			Expect(res.Count).To(BeEquivalentTo(devSize))
			Expect(readLines(datafile)).To(HaveLen(5))

			b, err := os.ReadFile(device)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(HaveLen(devSize))
			Expect(bytes.Count(b, []byte{0})).To(Equal(devSize))
		})
	})

	Describe("info", func() {
		It("should report and never create the data file", func() {
			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeInfo, BufSize: cos.MiB, GroupSize: 1, DataFile: datafile,
			})
			res, err := p.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ops).To(BeZero())
			Expect(datafile).NotTo(BeAnExistingFile())

			report := stderr.String()
			Expect(report).To(HavePrefix(strings.Repeat("-", len(profiler.Progname)) + "\n" + profiler.Progname))
			Expect(report).To(ContainSubstring(fmt.Sprintf("Device %q has %d bytes", device, devSize)))
			Expect(report).To(ContainSubstring(fmt.Sprintf("System pagesize is %d bytes long.", os.Getpagesize())))
			Expect(report).To(ContainSubstring("Buffer is 1048576 bytes long."))
		})
	})

	Describe("errors", func() {
		It("should fail to open a missing device", func() {
			p := newProfiler(&profiler.Config{
				Device: filepath.Join(dir, "none"), Mode: profiler.ModeRead, BufSize: cos.MiB, GroupSize: 1,
				DataFile: datafile,
			})
			_, err := p.Run()
			var errOpen *blkdev.ErrOpen
			Expect(errors.As(err, &errOpen)).To(BeTrue())
			Expect(datafile).NotTo(BeAnExistingFile())
		})

		It("should fail to create the data file", func() {
			p := newProfiler(&profiler.Config{
				Device: device, Mode: profiler.ModeRead, BufSize: cos.MiB, GroupSize: 1,
				DataFile: filepath.Join(device, "out.dat"),
			})
			_, err := p.Run()
			var errOut *profiler.ErrOutput
			Expect(errors.As(err, &errOut)).To(BeTrue())
		})

		It("should reject invalid configuration", func() {
			_, err := profiler.New(&profiler.Config{Device: device, Mode: profiler.ModeRead, GroupSize: 1, DataFile: datafile})
			var errCfg *profiler.ErrConfig
			Expect(errors.As(err, &errCfg)).To(BeTrue())
			Expect(errCfg.Field).To(Equal("buf_size"))
		})
	})
})
