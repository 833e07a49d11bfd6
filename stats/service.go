package stats

import (
	"context"
	"errors"
	"log/slog"

	"iceberg-lens/avro"
	"iceberg-lens/iceberg"
	"iceberg-lens/storage"
)

// Service answers stats requests on a best-effort basis. Callers have the
// catalog as their primary data path, so every failure here degrades to "no
// stats" rather than an error.
type Service struct {
	computer Computer
	logger   *slog.Logger
}

func NewService(computer Computer, logger *slog.Logger) *Service {
	return &Service{computer: computer, logger: logger}
}

// TableStats computes statistics for manifestList using the credentials in
// the table config props. It reports false when credentials are missing or
// the computation fails.
func (s *Service) TableStats(ctx context.Context, manifestList string, props map[string]string) (TableStats, bool) {
	if manifestList == "" {
		return TableStats{}, false
	}
	creds, ok := iceberg.StorageCredentials(props)
	if !ok {
		s.logger.Debug("no storage credentials vended, skipping stats", "manifest_list", manifestList)
		return TableStats{}, false
	}

	stats, err := s.computer.Compute(ctx, manifestList, creds)
	if err != nil {
		s.logFailure(manifestList, err)
		return TableStats{}, false
	}
	return stats, true
}

func (s *Service) logFailure(manifestList string, err error) {
	attrs := []any{"manifest_list", manifestList, "error", err}

	var fetchErr *storage.FetchError
	var formatErr *avro.FormatError
	switch {
	case errors.As(err, &fetchErr):
		attrs = append(attrs, "status", fetchErr.StatusCode)
	case errors.As(err, &formatErr):
		attrs = append(attrs, "offset", formatErr.Offset)
		if formatErr.Block > 0 {
			attrs = append(attrs, "block_offset", formatErr.Block)
		}
	case errors.Is(err, context.Canceled):
		s.logger.Debug("stats computation canceled", attrs...)
		return
	}
	s.logger.Warn("stats unavailable", attrs...)
}
