package iceberg

import "github.com/google/uuid"

type PartitionSpec struct {
	SpecID int              `json:"spec-id"`
	Fields []PartitionField `json:"fields"`
}

type PartitionField struct {
	SourceID  int    `json:"source-id"` // ID from the schema
	FieldID   int    `json:"field-id"`  // Unique ID for partition field
	Name      string `json:"name"`      // Partition name (e.g. "year", "month", "day")
	Transform string `json:"transform"` // year, month, day, bucket, truncate
}

// TableMetadata is the read-only subset of the catalog's table metadata.
type TableMetadata struct {
	FormatVersion     int               `json:"format-version"`
	TableUUID         uuid.UUID         `json:"table-uuid"`
	Location          string            `json:"location"`
	LastUpdated       int64             `json:"last-updated-ms"`
	LastColumnID      int               `json:"last-column-id"`
	CurrentSchemaID   int               `json:"current-schema-id"`
	Schemas           []Schema          `json:"schemas"`
	DefaultSpecID     int               `json:"default-spec-id"`
	PartitionSpecs    []PartitionSpec   `json:"partition-specs"`
	Properties        map[string]string `json:"properties"`
	CurrentSnapshotID *int64            `json:"current-snapshot-id,omitempty"`
	Snapshots         []*Snapshot       `json:"snapshots"`
}

type Schema struct {
	SchemaID int     `json:"schema-id"`
	Fields   []Field `json:"fields"`
}

// Field is a top-level schema column. Nested types are kept as raw JSON
// values since nothing here interprets them.
type Field struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     any    `json:"type"`
	Required bool   `json:"required"`
	Doc      string `json:"doc,omitempty"`
}

type Snapshot struct {
	SnapshotID       int64             `json:"snapshot-id"`
	ParentSnapshotID *int64            `json:"parent-snapshot-id,omitempty"`
	SequenceNumber   int64             `json:"sequence-number"`
	TimestampMs      int64             `json:"timestamp-ms"`
	ManifestList     string            `json:"manifest-list"`
	Summary          map[string]string `json:"summary"`
	SchemaID         *int              `json:"schema-id,omitempty"`
}

// LoadTableResponse is the body of a catalog load-table call. Config carries
// per-table properties, including vended storage credentials.
type LoadTableResponse struct {
	MetadataLocation string            `json:"metadata-location"`
	Metadata         TableMetadata     `json:"metadata"`
	Config           map[string]string `json:"config,omitempty"`
}

// CurrentSnapshot returns the snapshot named by current-snapshot-id, or nil
// for tables that have never been written. A current-snapshot-id of -1 also
// means no snapshot.
func (m *TableMetadata) CurrentSnapshot() *Snapshot {
	if m.CurrentSnapshotID == nil || *m.CurrentSnapshotID == -1 {
		return nil
	}
	for _, s := range m.Snapshots {
		if s.SnapshotID == *m.CurrentSnapshotID {
			return s
		}
	}
	return nil
}
