// Package nlog - dprofiler logger, provides buffering, timestamping, writing, and
// flushing/rotating
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	nlogBufSize  = 64 * 1024
	nlogLineSize = 4 * 1024
	nlogChSize   = 32
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

type (
	nlog struct {
		file   *os.File
		pw     *fixed
		ch     chan *fixed
		done   chan struct{}
		sev    severity
		mw     sync.Mutex
		closed bool
	}
)

var (
	host    = "unknown"
	sevText = []string{sevInfo: "INFO", sevWarn: "WARNING", sevErr: "ERROR"}
)

var (
	// of `fixed` line bufs
	linePool = sync.Pool{
		New: func() any {
			return &fixed{buf: make([]byte, nlogLineSize)}
		},
	}
	// of `fixed` write-behind bufs
	bufPool = sync.Pool{
		New: func() any {
			return &fixed{buf: make([]byte, nlogBufSize)}
		},
	}
)

var (
	nlogs [sevErr + 1]*nlog

	toStderr     bool
	alsoToStderr bool
	stderrOnly   bool

	logDir string
	arg0   string
	title  string

	pid int

	onceInitFiles sync.Once

	stopping atomic.Bool // true when exiting
)

func init() {
	pid = os.Getpid()
	arg0 = filepath.Base(os.Args[0])
	if h, err := os.Hostname(); err == nil {
		host = _shortHost(h)
	}
}

func initFiles() {
	if toStderr || logDir == "" {
		stderrOnly = true
		return
	}
	if err := fcreateAll(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: unable to create logs in %q: %v (logging to stderr)\n", logDir, err)
		stderrOnly = true
		return
	}
	go flushEvery(FlushInterval, &stopping)
}

// periodic flush; exits once `stop` is set (see FlushExit)
func flushEvery(d time.Duration, stop *atomic.Bool) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for range ticker.C {
		if stop.Load() {
			return
		}
		Flush()
	}
}

func fcreateAll() error {
	now := time.Now()
	for _, s := range []severity{sevInfo, sevErr} {
		nlog := newNlog(s)
		if err := nlog.rotate(now); err != nil {
			return err
		}
		nlogs[s] = nlog
		go nlog.flusher()
	}
	return nil
}

func sname() string { return arg0 }

func _shortHost(hostname string) string {
	if before, _, ok := strings.Cut(hostname, "."); ok {
		return before
	}
	return hostname
}

func fcreate(tag string, t time.Time) (f *os.File, fname string, err error) {
	err = os.MkdirAll(logDir, 0o755)
	if err != nil {
		return
	}
	name, link := logfname(tag, t)
	fname = filepath.Join(logDir, name)
	f, err = os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return
	}
	// re-symlink
	symlink := filepath.Join(logDir, link)
	os.Remove(symlink)
	os.Symlink(name, symlink)
	return
}

//
// nlog
//

func newNlog(sev severity) *nlog {
	nlog := &nlog{
		sev:  sev,
		pw:   bufPool.Get().(*fixed),
		ch:   make(chan *fixed, nlogChSize),
		done: make(chan struct{}),
	}
	nlog.pw.reset()
	return nlog
}

// main function
func log(sev severity, depth int, format string, args ...any) {
	onceInitFiles.Do(initFiles)

	fb := linePool.Get().(*fixed)
	fb.reset()
	sprintf(sev, depth, format, fb, args...)

	switch {
	case stderrOnly || stopping.Load():
		os.Stderr.Write(fb.bytes())
	default:
		if alsoToStderr || sev >= sevErr {
			os.Stderr.Write(fb.bytes())
		}
		if sev >= sevWarn {
			nlogs[sevErr].write(fb)
		}
		nlogs[sevInfo].write(fb)
	}
	linePool.Put(fb)
}

func (nlog *nlog) write(line *fixed) {
	nlog.mw.Lock()
	if nlog.closed {
		nlog.mw.Unlock()
		os.Stderr.Write(line.bytes())
		return
	}
	nlog.pw.Write(line.bytes())
	if nlog.pw.avail() <= nlogLineSize {
		nlog.handoff()
	}
	nlog.mw.Unlock()
}

// under mw-lock
func (nlog *nlog) handoff() {
	select {
	case nlog.ch <- nlog.pw:
		nlog.pw = bufPool.Get().(*fixed)
		nlog.pw.reset()
	default:
		msg := fmt.Sprintf("Error: [nlog] drop %dB\n", nlog.pw.woff) // discard
		os.Stderr.WriteString(msg)
		nlog.pw.reset()
	}
}

func (nlog *nlog) flush(exit bool) {
	nlog.mw.Lock()
	if nlog.closed {
		nlog.mw.Unlock()
		return
	}
	if nlog.pw.woff > 0 {
		nlog.handoff()
	}
	if !exit {
		nlog.mw.Unlock()
		return
	}
	nlog.closed = true
	close(nlog.ch)
	nlog.mw.Unlock()
	<-nlog.done
}

func (nlog *nlog) flusher() {
	var size int64
	for pw := range nlog.ch {
		n, err := nlog.file.Write(pw.bytes())
		if err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		size += int64(n)
		bufPool.Put(pw)

		if size >= MaxSize {
			if err := nlog.rotate(time.Now()); err != nil {
				os.Stderr.WriteString(err.Error() + "\n")
			}
			size = 0
		}
	}
	nlog.file.Close()
	close(nlog.done)
}

func (nlog *nlog) rotate(now time.Time) (err error) {
	var (
		s    = fmt.Sprintf("host %s, %s for %s/%s\n", host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		snow = now.Format("2006/01/02 15:04:05")
		prev = nlog.file
	)
	if nlog.file, _, err = fcreate(sevText[nlog.sev], now); err != nil {
		nlog.file = prev
		return
	}
	if prev != nil {
		prev.Close()
		nlog.file.WriteString("Rotated at " + snow + ", " + s)
	} else {
		_, err = nlog.file.WriteString("Started up at " + snow + ", " + s)
	}
	if title != "" {
		nlog.file.WriteString(title + "\n")
	}
	return
}

//
// utils
//

func logfname(tag string, t time.Time) (name, link string) {
	s := sname()
	name = fmt.Sprintf("%s.%s.%s.%02d%02d-%02d%02d%02d.%d",
		s,
		host,
		tag,
		t.Month(),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
		pid)
	return name, s + "." + tag
}

func formatHdr(s severity, depth int, fb *fixed) {
	const char = "IWE"
	fb.writeByte(char[s])
	fb.writeByte(' ')
	fb.writeStamp(time.Now())
	fb.writeByte(' ')

	_, fn, ln, ok := runtime.Caller(3 + depth)
	if !ok {
		return
	}
	fn = filepath.Base(fn)
	fb.writeString(strings.TrimSuffix(fn, ".go"))
	fb.writeByte(':')
	fb.writeString(strconv.Itoa(ln))
	fb.writeByte(' ')
}

func sprintf(sev severity, depth int, format string, fb *fixed, args ...any) {
	formatHdr(sev, depth+1, fb)
	if format == "" {
		fmt.Fprint(fb, args...)
	} else {
		fmt.Fprintf(fb, format, args...)
	}
	fb.eol()
}
