//go:build !debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(bool, ...any)          {}
func AssertNoErr(error)            {}
func Assertf(bool, string, ...any) {}
func Func(func())                  {}
