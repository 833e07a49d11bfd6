package avro

import (
	"errors"
	"fmt"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("avro: malformed container file")

// FormatError reports corrupt or truncated container data. Offset is the
// cursor position where the problem was detected. For errors inside a data
// block, Block is the file offset of that block's header and Offset is
// relative to the block's decompressed payload; Block is zero otherwise,
// since no block can start at the beginning of a file.
type FormatError struct {
	Offset int
	Block  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Block > 0 {
		return fmt.Sprintf("avro: %s at offset %d in block at file offset %d", e.Reason, e.Offset, e.Block)
	}
	return fmt.Sprintf("avro: %s at offset %d", e.Reason, e.Offset)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// CodecError is returned when a file declares a block codec this package
// cannot decompress.
type CodecError struct {
	Codec string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("avro: unsupported codec %q", e.Codec)
}
