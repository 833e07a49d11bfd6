package avro

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the wire layout of a schema node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindArray
	KindMap
	KindRecord
	KindFixed
	KindUnion
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindBytes:   "bytes",
	KindArray:   "array",
	KindMap:     "map",
	KindRecord:  "record",
	KindFixed:   "fixed",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

var primitiveKinds = map[string]Kind{
	"null":    KindNull,
	"boolean": KindBoolean,
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
	"string":  KindString,
	"bytes":   KindBytes,
}

// Schema is a normalized schema node. Which fields are meaningful depends on
// Kind: Items for arrays, Values for maps, Fields for records, Size for fixed
// and Members for unions.
type Schema struct {
	Kind    Kind
	Items   *Schema
	Values  *Schema
	Fields  []Field
	Size    int
	Members []*Schema
}

type Field struct {
	Name string
	Type *Schema
}

// Primitive returns a schema node for a primitive kind.
func Primitive(k Kind) *Schema {
	return &Schema{Kind: k}
}

// ParseSchema parses a JSON schema document and normalizes it.
func ParseSchema(data []byte) (*Schema, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing schema json: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize converts a decoded JSON schema (string, object or array) into a
// Schema tree. Logical types are dropped, enums become ints, and anything
// unsupported becomes null so the surrounding field can still be skipped.
func Normalize(raw any) *Schema {
	switch v := raw.(type) {
	case string:
		if k, ok := primitiveKinds[v]; ok {
			return Primitive(k)
		}
		return Primitive(KindNull)
	case []any:
		members := make([]*Schema, len(v))
		for i, m := range v {
			members[i] = Normalize(m)
		}
		return &Schema{Kind: KindUnion, Members: members}
	case map[string]any:
		return normalizeObject(v)
	default:
		return Primitive(KindNull)
	}
}

func normalizeObject(obj map[string]any) *Schema {
	typ, ok := obj["type"].(string)
	if !ok {
		// {"type": {...}} and {"type": [...]} wrap a nested definition.
		if nested, exists := obj["type"]; exists {
			return Normalize(nested)
		}
		return Primitive(KindNull)
	}
	if k, ok := primitiveKinds[typ]; ok {
		return Primitive(k)
	}

	switch typ {
	case "array":
		return &Schema{Kind: KindArray, Items: Normalize(obj["items"])}
	case "map":
		return &Schema{Kind: KindMap, Values: Normalize(obj["values"])}
	case "fixed":
		size, _ := obj["size"].(float64)
		return &Schema{Kind: KindFixed, Size: int(size)}
	case "record", "error":
		rawFields, _ := obj["fields"].([]any)
		fields := make([]Field, 0, len(rawFields))
		for _, rf := range rawFields {
			f, ok := rf.(map[string]any)
			if !ok {
				continue
			}
			name, _ := f["name"].(string)
			fields = append(fields, Field{Name: name, Type: Normalize(f["type"])})
		}
		return &Schema{Kind: KindRecord, Fields: fields}
	case "enum":
		return Primitive(KindInt)
	default:
		return Primitive(KindNull)
	}
}

// zeroWidth reports whether values of s occupy no bytes on the wire.
func (s *Schema) zeroWidth() bool {
	switch s.Kind {
	case KindNull:
		return true
	case KindFixed:
		return s.Size == 0
	case KindRecord:
		for _, f := range s.Fields {
			if !f.Type.zeroWidth() {
				return false
			}
		}
		return true
	default:
		return false
	}
}
