// util/compress.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpackZstd writes obj to w as zstd-compressed msgpack.
func EncodeMsgpackZstd(w io.Writer, obj any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(obj); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// DecodeMsgpack decodes msgpack from r into obj. The reader is typically
// one returned by LoadResource or NewResourceReader, in which case zstd
// decompression has already been handled.
func DecodeMsgpack(r io.Reader, obj any) error {
	return msgpack.NewDecoder(r).Decode(obj)
}
