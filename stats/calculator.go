package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"iceberg-lens/avro"
	"iceberg-lens/iceberg"
	"iceberg-lens/storage"
)

// ObjectGetter fetches an s3:// location with the given credentials.
type ObjectGetter interface {
	Get(ctx context.Context, creds storage.Credentials, location string) ([]byte, error)
}

// Calculator is the uncached Computer: fetch, decode, aggregate.
type Calculator struct {
	objects ObjectGetter
	metrics *Metrics
	logger  *slog.Logger
}

func NewCalculator(objects ObjectGetter, metrics *Metrics, logger *slog.Logger) *Calculator {
	return &Calculator{
		objects: objects,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *Calculator) Compute(ctx context.Context, manifestList string, creds storage.Credentials) (TableStats, error) {
	start := time.Now()

	c.metrics.fetches.Inc()
	data, err := c.objects.Get(ctx, creds, manifestList)
	if err != nil {
		c.metrics.failures.WithLabelValues(failureFetch).Inc()
		return TableStats{}, fmt.Errorf("fetching manifest list: %w", err)
	}

	stats, err := Summarize(data)
	if err != nil {
		c.metrics.failures.WithLabelValues(failureDecode).Inc()
		return TableStats{}, fmt.Errorf("decoding manifest list %s: %w", manifestList, err)
	}

	c.metrics.duration.Observe(time.Since(start).Seconds())
	c.logger.Debug("computed table stats",
		"manifest_list", manifestList,
		"bytes", len(data),
		"total_records", stats.TotalRecords,
		"total_data_files", stats.TotalDataFiles,
		"duration", time.Since(start),
	)
	return stats, nil
}

// Summarize decodes a manifest list file and aggregates its entries.
func Summarize(data []byte) (TableStats, error) {
	r, err := avro.NewReader(data, avro.WithFields(iceberg.ManifestListFields...))
	if err != nil {
		return TableStats{}, err
	}

	var agg Aggregator
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return agg.Result(), nil
		}
		if err != nil {
			return TableStats{}, err
		}
		agg.Add(iceberg.ManifestFileFromRecord(rec))
	}
}
