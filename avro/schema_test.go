package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   *Schema
	}{
		{"bare primitive", `"long"`, Primitive(KindLong)},
		{"object primitive", `{"type": "string"}`, Primitive(KindString)},
		{"logical type dropped", `{"type": "long", "logicalType": "timestamp-micros"}`, Primitive(KindLong)},
		{"enum degrades to int", `{"type": "enum", "name": "e", "symbols": ["A", "B"]}`, Primitive(KindInt)},
		{"unknown discriminator", `{"type": "decimal128"}`, Primitive(KindNull)},
		{"named reference", `"some.Record"`, Primitive(KindNull)},
		{"fixed", `{"type": "fixed", "name": "f", "size": 16}`, &Schema{Kind: KindFixed, Size: 16}},
		{
			"array",
			`{"type": "array", "items": "int"}`,
			&Schema{Kind: KindArray, Items: Primitive(KindInt)},
		},
		{
			"map",
			`{"type": "map", "values": ["null", "bytes"]}`,
			&Schema{Kind: KindMap, Values: &Schema{Kind: KindUnion, Members: []*Schema{Primitive(KindNull), Primitive(KindBytes)}}},
		},
		{
			"union keeps order",
			`["long", "null"]`,
			&Schema{Kind: KindUnion, Members: []*Schema{Primitive(KindLong), Primitive(KindNull)}},
		},
		{
			"nested type object",
			`{"type": {"type": "array", "items": "long"}}`,
			&Schema{Kind: KindArray, Items: Primitive(KindLong)},
		},
		{
			"record fields in order",
			`{"type": "record", "name": "r", "fields": [
				{"name": "b", "type": "boolean"},
				{"name": "a", "type": {"type": "int", "logicalType": "date"}}
			]}`,
			&Schema{Kind: KindRecord, Fields: []Field{
				{Name: "b", Type: Primitive(KindBoolean)},
				{Name: "a", Type: Primitive(KindInt)},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchema([]byte(tt.schema))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSchemaInvalidJSON(t *testing.T) {
	_, err := ParseSchema([]byte(`{"type": `))
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "union", KindUnion.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestZeroWidth(t *testing.T) {
	assert.True(t, Primitive(KindNull).zeroWidth())
	assert.True(t, (&Schema{Kind: KindFixed}).zeroWidth())
	assert.True(t, (&Schema{Kind: KindRecord, Fields: []Field{{Name: "n", Type: Primitive(KindNull)}}}).zeroWidth())
	assert.False(t, Primitive(KindBoolean).zeroWidth())
	assert.False(t, (&Schema{Kind: KindUnion, Members: []*Schema{Primitive(KindNull)}}).zeroWidth())
}
