// Package cos provides common low-level types and utilities for all dprofiler packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"encoding/hex"
	"hash"
	"hash/crc32"

	"github.com/NVIDIA/dprofiler/cmn/debug"
	"github.com/OneOfOne/xxhash"
)

// checksums
const (
	ChecksumXXHash = "xxhash"
	ChecksumCRC32C = "crc32c"
)

type (
	CksumHash struct {
		H     hash.Hash
		ty    string
		value string
	}
)

func ValidateCksumType(ty string) bool {
	return ty == ChecksumXXHash || ty == ChecksumCRC32C
}

func NewCksumHash(ty string) *CksumHash {
	ck := &CksumHash{ty: ty}
	switch ty {
	case ChecksumXXHash:
		ck.H = xxhash.New64()
	case ChecksumCRC32C:
		ck.H = crc32.New(crc32.MakeTable(crc32.Castagnoli))
	default:
		debug.Assert(false, "invalid checksum type: ", ty)
		return nil
	}
	return ck
}

func (ck *CksumHash) Finalize()     { ck.value = hex.EncodeToString(ck.H.Sum(nil)) }
func (ck *CksumHash) Value() string { return ck.value }
func (ck *CksumHash) String() string {
	return ck.ty + "[" + ck.value + "]"
}
