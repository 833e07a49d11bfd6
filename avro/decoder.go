package avro

import "math"

// Record is a decoded record keyed by field name.
type Record map[string]any

// ReadValue decodes one value of schema s.
func (c *Cursor) ReadValue(s *Schema) (any, error) {
	switch s.Kind {
	case KindNull:
		return nil, nil
	case KindBoolean:
		return c.ReadBoolean()
	case KindInt, KindLong:
		return c.ReadLong()
	case KindFloat:
		return c.ReadFloat()
	case KindDouble:
		return c.ReadDouble()
	case KindString:
		return c.ReadString()
	case KindBytes:
		return c.ReadBytesValue()
	case KindFixed:
		return c.ReadFixed(s.Size)
	case KindUnion:
		member, err := c.readUnionMember(s)
		if err != nil {
			return nil, err
		}
		return c.ReadValue(member)
	case KindArray:
		items := []any{}
		err := c.forEachBlockItem(s.Items, func() error {
			v, err := c.ReadValue(s.Items)
			if err != nil {
				return err
			}
			items = append(items, v)
			return nil
		})
		return items, err
	case KindMap:
		entries := map[string]any{}
		err := c.forEachBlockItem(nil, func() error {
			key, err := c.ReadString()
			if err != nil {
				return err
			}
			v, err := c.ReadValue(s.Values)
			if err != nil {
				return err
			}
			entries[key] = v
			return nil
		})
		return entries, err
	case KindRecord:
		rec := make(Record, len(s.Fields))
		for _, f := range s.Fields {
			v, err := c.ReadValue(f.Type)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
		}
		return rec, nil
	default:
		return nil, formatErrorf(c.pos, "cannot decode schema kind %s", s.Kind)
	}
}

// SkipValue advances past one value of schema s, consuming exactly the bytes
// ReadValue would.
func (c *Cursor) SkipValue(s *Schema) error {
	switch s.Kind {
	case KindNull:
		return nil
	case KindBoolean:
		return c.Skip(1)
	case KindInt, KindLong:
		_, err := c.ReadLong()
		return err
	case KindFloat:
		return c.Skip(4)
	case KindDouble:
		return c.Skip(8)
	case KindString, KindBytes:
		return c.skipLengthPrefixed()
	case KindFixed:
		return c.Skip(s.Size)
	case KindUnion:
		member, err := c.readUnionMember(s)
		if err != nil {
			return err
		}
		return c.SkipValue(member)
	case KindArray:
		return c.forEachBlockItem(s.Items, func() error {
			return c.SkipValue(s.Items)
		})
	case KindMap:
		return c.forEachBlockItem(nil, func() error {
			if err := c.skipLengthPrefixed(); err != nil {
				return err
			}
			return c.SkipValue(s.Values)
		})
	case KindRecord:
		for _, f := range s.Fields {
			if err := c.SkipValue(f.Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return formatErrorf(c.pos, "cannot skip schema kind %s", s.Kind)
	}
}

func (c *Cursor) readUnionMember(s *Schema) (*Schema, error) {
	start := c.pos
	idx, err := c.ReadLong()
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(s.Members)) {
		return nil, formatErrorf(start, "union index %d out of range [0, %d)", idx, len(s.Members))
	}
	return s.Members[idx], nil
}

// MaxZeroWidthItems caps the items in one collection whose values occupy no
// bytes (null, empty records, fixed(0)). Their counts cannot be checked
// against the remaining input, so the cap bounds the work a corrupt count
// can cause.
const MaxZeroWidthItems = 1 << 20

// forEachBlockItem walks a block-structured array or map body, calling fn
// once per item. A negative block count is followed by the block's byte
// length, which is read and ignored; items are always visited one by one.
// The walk ends at the first zero count. item is the array item schema, or
// nil for maps, whose keys always occupy at least one byte.
func (c *Cursor) forEachBlockItem(item *Schema, fn func() error) error {
	zeroWidth := item != nil && item.zeroWidth()
	var zeroWidthItems int64
	for {
		start := c.pos
		count, err := c.ReadLong()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if count < 0 {
			if count == math.MinInt64 {
				return formatErrorf(start, "invalid block count %d", count)
			}
			count = -count
			if _, err := c.ReadLong(); err != nil {
				return err
			}
		}
		if zeroWidth {
			if count > MaxZeroWidthItems-zeroWidthItems {
				return formatErrorf(start, "block count %d exceeds limit of %d zero-width items", count, MaxZeroWidthItems)
			}
			zeroWidthItems += count
		} else if count > int64(c.Remaining()) {
			return formatErrorf(start, "block count %d exceeds remaining %d bytes", count, c.Remaining())
		}
		for i := int64(0); i < count; i++ {
			if err := fn(); err != nil {
				return err
			}
		}
	}
}
