package avro

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Magic is the 4-byte signature that opens every object container file.
var Magic = [4]byte{'O', 'b', 'j', 1}

const (
	SyncSize = 16

	CodecNull    = "null"
	CodecDeflate = "deflate"

	metaCodec  = "avro.codec"
	metaSchema = "avro.schema"

	// DefaultMaxBlockBytes caps the decompressed size of one block.
	DefaultMaxBlockBytes = 256 << 20
)

// Header is the parsed file header.
type Header struct {
	Meta   map[string][]byte
	Sync   [SyncSize]byte
	Codec  string
	Schema *Schema
}

type options struct {
	fields        map[string]struct{}
	laxSync       bool
	maxBlockBytes int64
}

type Option func(*options)

// WithFields restricts decoding to the named top-level fields. Other fields
// are skipped without being materialized. Without this option every field is
// decoded.
func WithFields(names ...string) Option {
	return func(o *options) {
		if o.fields == nil {
			o.fields = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			o.fields[n] = struct{}{}
		}
	}
}

// WithLaxSync disables the check that each block's trailing sync marker
// matches the header's. The marker is still consumed.
func WithLaxSync() Option {
	return func(o *options) {
		o.laxSync = true
	}
}

// WithMaxBlockBytes overrides DefaultMaxBlockBytes. A compressed block
// that inflates past n bytes is a FormatError.
func WithMaxBlockBytes(n int64) Option {
	return func(o *options) {
		o.maxBlockBytes = n
	}
}

// Reader streams records out of an in-memory container file. Blocks are
// processed in file order and records in field order.
type Reader struct {
	header Header
	opts   options
	want   []bool

	file       *Cursor
	block      *Cursor
	blockStart int
	blockLeft  int64
}

// NewReader parses the container header in data.
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	r := &Reader{file: NewCursor(data)}
	r.opts.maxBlockBytes = DefaultMaxBlockBytes
	for _, opt := range opts {
		opt(&r.opts)
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}

	r.want = make([]bool, len(r.header.Schema.Fields))
	for i, f := range r.header.Schema.Fields {
		_, ok := r.opts.fields[f.Name]
		r.want[i] = r.opts.fields == nil || ok
	}
	return r, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) readHeader() error {
	magic, err := r.file.ReadBytes(len(Magic))
	if err != nil {
		return err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return formatErrorf(0, "bad magic %x", magic)
	}

	meta := make(map[string][]byte)
	err = r.file.forEachBlockItem(nil, func() error {
		key, err := r.file.ReadString()
		if err != nil {
			return err
		}
		value, err := r.file.ReadBytesValue()
		if err != nil {
			return err
		}
		meta[key] = value
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}

	sync, err := r.file.ReadFixed(SyncSize)
	if err != nil {
		return fmt.Errorf("reading sync marker: %w", err)
	}

	codec := CodecNull
	if v, ok := meta[metaCodec]; ok {
		codec = string(v)
	}
	if codec != CodecNull && codec != CodecDeflate {
		return &CodecError{Codec: codec}
	}

	rawSchema, ok := meta[metaSchema]
	if !ok {
		return formatErrorf(r.file.Pos(), "missing %s metadata", metaSchema)
	}
	schema, err := ParseSchema(rawSchema)
	if err != nil {
		return &FormatError{Offset: r.file.Pos(), Reason: err.Error()}
	}
	if schema.Kind != KindRecord {
		return formatErrorf(r.file.Pos(), "top-level schema is %s, want record", schema.Kind)
	}

	r.header = Header{Meta: meta, Codec: codec, Schema: schema}
	copy(r.header.Sync[:], sync)
	return nil
}

// Next returns the next record, or io.EOF once the file is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.blockLeft == 0 {
		if r.block != nil {
			if err := r.readBlockSync(); err != nil {
				return nil, err
			}
			r.block = nil
		}
		if r.file.Remaining() == 0 {
			return nil, io.EOF
		}
		if err := r.openBlock(); err != nil {
			return nil, err
		}
	}

	rec := make(Record)
	for i, f := range r.header.Schema.Fields {
		if r.want[i] {
			v, err := r.block.ReadValue(f.Type)
			if err != nil {
				return nil, fmt.Errorf("decoding field %q: %w", f.Name, r.inBlock(err))
			}
			rec[f.Name] = v
			continue
		}
		if err := r.block.SkipValue(f.Type); err != nil {
			return nil, fmt.Errorf("skipping field %q: %w", f.Name, r.inBlock(err))
		}
	}
	r.blockLeft--
	return rec, nil
}

func (r *Reader) openBlock() error {
	start := r.file.Pos()
	count, err := r.file.ReadLong()
	if err != nil {
		return err
	}
	size, err := r.file.ReadLong()
	if err != nil {
		return err
	}
	if count < 0 || size < 0 || size > int64(r.file.Remaining()) {
		return formatErrorf(start, "invalid block header count=%d size=%d", count, size)
	}
	payload, err := r.file.ReadBytes(int(size))
	if err != nil {
		return err
	}
	if r.header.Codec == CodecDeflate {
		payload, err = inflate(payload, r.opts.maxBlockBytes)
		if err != nil {
			return &FormatError{Offset: start, Reason: fmt.Sprintf("inflating block: %v", err)}
		}
	}
	r.block = NewCursor(payload)
	r.blockStart = start
	r.blockLeft = count
	return nil
}

// inBlock tags a FormatError raised by the block cursor with the block's
// file offset.
func (r *Reader) inBlock(err error) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Block == 0 {
		fe.Block = r.blockStart
	}
	return err
}

func (r *Reader) readBlockSync() error {
	start := r.file.Pos()
	sync, err := r.file.ReadFixed(SyncSize)
	if err != nil {
		return fmt.Errorf("reading block sync marker: %w", err)
	}
	if !r.opts.laxSync && !bytes.Equal(sync, r.header.Sync[:]) {
		return formatErrorf(start, "block sync marker does not match header")
	}
	return nil
}

// inflate decompresses a raw deflate stream (no zlib header or trailer) of
// at most limit bytes.
func inflate(payload []byte, limit int64) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(payload))
	defer fr.Close()
	out, err := io.ReadAll(io.LimitReader(fr, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", limit)
	}
	return out, nil
}

// Decode reads every record in data.
func Decode(data []byte, opts ...Option) ([]Record, error) {
	r, err := NewReader(data, opts...)
	if err != nil {
		return nil, err
	}
	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
