package stats

import "iceberg-lens/iceberg"

// Aggregator folds manifest list entries into table totals. Delete manifests
// are ignored; their counters describe row-level deletes, not data files.
// Totals are not clamped, so inconsistent upstream counters surface as-is.
type Aggregator struct {
	stats TableStats
}

func (a *Aggregator) Add(mf iceberg.ManifestFile) {
	if mf.Content != iceberg.ManifestContentData {
		return
	}
	a.stats.TotalRecords += mf.AddedRowsCount + mf.ExistingRowsCount - mf.DeletedRowsCount
	a.stats.TotalDataFiles += mf.AddedFilesCount + mf.ExistingFilesCount - mf.DeletedFilesCount
}

func (a *Aggregator) Result() TableStats {
	return a.stats
}
