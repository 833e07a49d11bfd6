// Package avrotest builds object container files for tests.
package avrotest

import (
	"bytes"
	"math"
	"sort"

	"github.com/klauspost/compress/flate"

	"iceberg-lens/avro"
)

// Sync is the marker used by files that do not set their own.
var Sync = [avro.SyncSize]byte{
	0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04,
	0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c,
}

// Block is one data block: Count records whose encoded bodies are
// concatenated in Data. Data is compressed by File.Bytes when the file's
// codec is deflate.
type Block struct {
	Count int64
	Data  []byte
	// Sync overrides the trailing marker when non-nil.
	Sync []byte
}

type File struct {
	Schema string
	Codec  string
	Meta   map[string][]byte
	Sync   *[avro.SyncSize]byte
	Blocks []Block
}

// Bytes encodes the container file.
func (f File) Bytes() []byte {
	sync := Sync
	if f.Sync != nil {
		sync = *f.Sync
	}

	meta := map[string][]byte{"avro.schema": []byte(f.Schema)}
	if f.Codec != "" {
		meta["avro.codec"] = []byte(f.Codec)
	}
	for k, v := range f.Meta {
		meta[k] = v
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := append([]byte(nil), avro.Magic[:]...)
	out = avro.AppendLong(out, int64(len(keys)))
	for _, k := range keys {
		out = String(out, k)
		out = Bytes(out, meta[k])
	}
	out = avro.AppendLong(out, 0)
	out = append(out, sync[:]...)

	for _, b := range f.Blocks {
		data := b.Data
		if f.Codec == avro.CodecDeflate {
			data = Deflate(data)
		}
		out = avro.AppendLong(out, b.Count)
		out = avro.AppendLong(out, int64(len(data)))
		out = append(out, data...)
		if b.Sync != nil {
			out = append(out, b.Sync...)
		} else {
			out = append(out, sync[:]...)
		}
	}
	return out
}

// Long appends a zigzag varint.
func Long(dst []byte, v int64) []byte {
	return avro.AppendLong(dst, v)
}

func String(dst []byte, s string) []byte {
	dst = avro.AppendLong(dst, int64(len(s)))
	return append(dst, s...)
}

func Bytes(dst []byte, b []byte) []byte {
	dst = avro.AppendLong(dst, int64(len(b)))
	return append(dst, b...)
}

func Boolean(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func Float(dst []byte, v float32) []byte {
	u := math.Float32bits(v)
	return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

func Double(dst []byte, v float64) []byte {
	u := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		dst = append(dst, byte(u>>(8*i)))
	}
	return dst
}

// Union appends a union branch index; the caller appends the value.
func Union(dst []byte, index int64) []byte {
	return avro.AppendLong(dst, index)
}

// Deflate compresses data as a raw deflate stream.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		panic("avrotest: deflate writer: " + err.Error())
	}
	if _, err := w.Write(data); err != nil {
		panic("avrotest: deflate write: " + err.Error())
	}
	if err := w.Close(); err != nil {
		panic("avrotest: deflate close: " + err.Error())
	}
	return buf.Bytes()
}
