// Package main for the `dprofiler` executable.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/dprofiler/cmn/cos"
	"github.com/NVIDIA/dprofiler/cmn/nlog"
	"github.com/NVIDIA/dprofiler/profiler"
)

func main() {
	prog := filepath.Base(os.Args[0])
	cfg, err := parseCmdLine(prog, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(os.Stderr, prog)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n\n", prog, err)
		usage(os.Stderr, prog)
		os.Exit(1)
	}

	nlog.SetTitle(prog + " " + strings.Join(os.Args[1:], " "))
	p, err := profiler.New(cfg)
	if err != nil {
		cos.Exitf("%s: %v", prog, err)
	}
	if _, err := p.Run(); err != nil {
		cos.ExitLogf("%s: %v", prog, err)
	}
	nlog.FlushExit()
}
