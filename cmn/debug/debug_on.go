//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

func ON() bool { return true }

func Func(f func()) { f() }

func Assert(cond bool, a ...any) {
	if !cond {
		msg := "DEBUG PANIC: "
		if len(a) > 0 {
			msg += fmt.Sprint(a...) + ": "
		}
		_panic(msg)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		_panic("DEBUG PANIC: " + err.Error() + ": ")
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		_panic(fmt.Sprintf("DEBUG PANIC: "+f+": ", a...))
	}
}

func _panic(msg string) {
	var buf bytes.Buffer
	buf.WriteString(msg)
	for i := 2; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if i > 2 {
			buf.WriteString(" <- ")
		}
		fmt.Fprintf(&buf, "%s:%d", filepath.Base(file), line)
		if strings.Contains(file, "runtime/") {
			break
		}
	}
	buf.WriteByte('\n')
	os.Stderr.Write(buf.Bytes())
	panic(msg)
}
