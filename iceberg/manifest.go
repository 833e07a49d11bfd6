package iceberg

import "iceberg-lens/avro"

// Manifest content types in a manifest list.
const (
	ManifestContentData    = 0
	ManifestContentDeletes = 1
)

// Manifest list field names read when summarizing a snapshot.
const (
	fieldContent            = "content"
	fieldAddedRowsCount     = "added_rows_count"
	fieldExistingRowsCount  = "existing_rows_count"
	fieldDeletedRowsCount   = "deleted_rows_count"
	fieldAddedFilesCount    = "added_files_count"
	fieldExistingFilesCount = "existing_files_count"
	fieldDeletedFilesCount  = "deleted_files_count"

	// Format v1 manifest lists name the file counts after data files.
	fieldAddedDataFilesCount    = "added_data_files_count"
	fieldExistingDataFilesCount = "existing_data_files_count"
	fieldDeletedDataFilesCount  = "deleted_data_files_count"
)

// ManifestListFields is the decode set for manifest list statistics.
var ManifestListFields = []string{
	fieldContent,
	fieldAddedRowsCount,
	fieldExistingRowsCount,
	fieldDeletedRowsCount,
	fieldAddedFilesCount,
	fieldExistingFilesCount,
	fieldDeletedFilesCount,
	fieldAddedDataFilesCount,
	fieldExistingDataFilesCount,
	fieldDeletedDataFilesCount,
}

// ManifestFile is one manifest list entry, reduced to its counters.
type ManifestFile struct {
	Content            int64
	AddedRowsCount     int64
	ExistingRowsCount  int64
	DeletedRowsCount   int64
	AddedFilesCount    int64
	ExistingFilesCount int64
	DeletedFilesCount  int64
}

// ManifestFileFromRecord reads the counters from a decoded manifest list
// record. Missing and null counters are zero.
func ManifestFileFromRecord(rec avro.Record) ManifestFile {
	return ManifestFile{
		Content:            longField(rec, fieldContent),
		AddedRowsCount:     longField(rec, fieldAddedRowsCount),
		ExistingRowsCount:  longField(rec, fieldExistingRowsCount),
		DeletedRowsCount:   longField(rec, fieldDeletedRowsCount),
		AddedFilesCount:    longField(rec, fieldAddedFilesCount, fieldAddedDataFilesCount),
		ExistingFilesCount: longField(rec, fieldExistingFilesCount, fieldExistingDataFilesCount),
		DeletedFilesCount:  longField(rec, fieldDeletedFilesCount, fieldDeletedDataFilesCount),
	}
}

// longField returns the first of names present with an integer value.
func longField(rec avro.Record, names ...string) int64 {
	for _, name := range names {
		if v, ok := rec[name].(int64); ok {
			return v
		}
	}
	return 0
}
