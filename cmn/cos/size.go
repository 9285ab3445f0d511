// Package cos provides common low-level types and utilities for all dprofiler packages.
/*
 * Copyright (c) 2022-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

const (
	UnitsIEC = "iec" // default
	UnitsSI  = "si"
	UnitsRaw = "raw"
)

// IEC (binary) units
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

// IS (metric) units
const (
	KB = 1000
	MB = 1000 * KB
	GB = 1000 * MB
	TB = 1000 * GB
)

func _suffix(s string) string {
	for _, suffix := range []string{"KIB", "MIB", "GIB", "TIB", "KB", "MB", "GB", "TB", "K", "M", "G", "T", "B"} {
		if strings.HasSuffix(s, suffix) {
			return suffix
		}
	}
	return ""
}

/////////////
// SizeIEC //
/////////////

// SizeIEC is a byte count that (un)marshals as a human-readable IEC string
// and also accepts plain integers.
type SizeIEC int64

func (siz SizeIEC) MarshalJSON() ([]byte, error) { return jsoniter.Marshal(siz.String()) }
func (siz SizeIEC) MarshalYAML() (any, error)    { return siz.String(), nil }
func (siz SizeIEC) String() string               { return ToSizeIEC(int64(siz), 0) }

func (siz *SizeIEC) UnmarshalJSON(b []byte) (err error) {
	var (
		n   int64
		val string
	)
	if err = jsoniter.Unmarshal(b, &val); err != nil {
		// plain number
		if errN := jsoniter.Unmarshal(b, &n); errN != nil {
			return err
		}
		*siz = SizeIEC(n)
		return nil
	}
	n, err = ParseSize(val, UnitsIEC)
	*siz = SizeIEC(n)
	return
}

func (siz *SizeIEC) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("size: expecting scalar, got %q at line %d", node.Tag, node.Line)
	}
	n, err := ParseSize(node.Value, UnitsIEC)
	if err != nil {
		return err
	}
	*siz = SizeIEC(n)
	return nil
}

func ToSizeIEC(b int64, digits int) string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(TiB), "TiB")
	case b >= GiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(GiB), "GiB")
	case b >= MiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(MiB), "MiB")
	case b >= KiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(KiB), "KiB")
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// when `units` arg is empty conversion is defined by the suffix
func ParseSize(size, units string) (int64, error) {
	if size == "" {
		return 0, nil
	}
	// validation
	switch units {
	case "", UnitsIEC, UnitsSI, UnitsRaw:
	default:
		return 0, fmt.Errorf("ParseSize %q: invalid units %q (expecting %s, %s, or %s)", size, units,
			UnitsRaw, UnitsSI, UnitsIEC)
	}
	// units, more validation
	var (
		u      = UnitsRaw
		s      = strings.ToUpper(strings.TrimSpace(size))
		suffix = _suffix(s)
	)
	if suffix == "KIB" || suffix == "MIB" || suffix == "GIB" || suffix == "TIB" {
		u = UnitsIEC
		if units != "" && units != UnitsIEC {
			return 0, fmt.Errorf("ParseSize %q error: %q vs %q units", size, u, units)
		}
	} else if suffix != "" && suffix != "B" {
		u = UnitsSI
		if units != "" {
			if units == UnitsRaw {
				return 0, fmt.Errorf("ParseSize %q error: %q vs %q units", size, u, units)
			}
			// NOTE: the case when units (arg) take precedence over the suffix
			u = units
		}
	}
	// trim suffix and convert
	if suffix != "" {
		s = strings.TrimSuffix(s, suffix)
	}
	switch {
	case strings.IndexByte(suffix, 'K') >= 0:
		return _convert(s, u, KB, KiB)
	case strings.IndexByte(suffix, 'M') >= 0:
		return _convert(s, u, MB, MiB)
	case strings.IndexByte(suffix, 'G') >= 0:
		return _convert(s, u, GB, GiB)
	case strings.IndexByte(suffix, 'T') >= 0:
		return _convert(s, u, TB, TiB)
	default:
		return _convert(s, u, 1, 1)
	}
}

func _convert(s, units string, mult, multIEC int64) (val int64, err error) {
	if strings.IndexByte(s, '.') >= 0 {
		var f float64
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return
		}
		if units == UnitsIEC {
			return int64(f * float64(multIEC)), err
		}
		return int64(f * float64(mult)), err
	}
	val, err = strconv.ParseInt(s, 10, 64)
	if units == UnitsIEC {
		return val * multIEC, err
	}
	return val * mult, err
}
