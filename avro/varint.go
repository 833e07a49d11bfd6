package avro

// maxVarintLen is the longest encoding of a 64-bit value.
const maxVarintLen = 10

// AppendLong appends the zigzag varint encoding of v to dst.
func AppendLong(dst []byte, v int64) []byte {
	u := uint64(v<<1) ^ uint64(v>>63)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// readVarint decodes one zigzag varint starting at buf[pos]. It returns the
// value and the number of bytes consumed.
func readVarint(buf []byte, pos int) (int64, int, error) {
	var raw uint64
	var shift uint
	for i := 0; ; i++ {
		if i == maxVarintLen {
			return 0, 0, formatErrorf(pos, "varint longer than %d bytes", maxVarintLen)
		}
		if pos+i >= len(buf) {
			return 0, 0, formatErrorf(pos+i, "truncated varint")
		}
		b := buf[pos+i]
		raw |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return int64(raw>>1) ^ -int64(raw&1), i + 1, nil
		}
		shift += 7
	}
}
