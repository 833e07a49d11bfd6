package stats

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iceberg-lens/avro"
	"iceberg-lens/avro/avrotest"
	"iceberg-lens/iceberg"
	"iceberg-lens/storage"
)

const countsSchema = `{"type": "record", "name": "manifest_file", "fields": [
	{"name": "content", "type": "int"},
	{"name": "added_rows_count", "type": "long"}
]}`

func countsFile(codec string) []byte {
	var data []byte
	data = avrotest.Long(data, 0)
	data = avrotest.Long(data, 5)
	data = avrotest.Long(data, 1)
	data = avrotest.Long(data, 100)
	return avrotest.File{
		Schema: countsSchema,
		Codec:  codec,
		Blocks: []avrotest.Block{{Count: 2, Data: data}},
	}.Bytes()
}

func TestSummarizeMinimalManifestList(t *testing.T) {
	for _, codec := range []string{avro.CodecNull, avro.CodecDeflate} {
		t.Run(codec, func(t *testing.T) {
			stats, err := Summarize(countsFile(codec))
			require.NoError(t, err)
			assert.Equal(t, TableStats{TotalRecords: 5}, stats)
		})
	}
}

func TestSummarizeFullManifestList(t *testing.T) {
	data := manifestList(avro.CodecDeflate,
		iceberg.ManifestFile{Content: 0, AddedRowsCount: 1000, AddedFilesCount: 3},
		iceberg.ManifestFile{Content: 0, ExistingRowsCount: 500, DeletedRowsCount: 10, ExistingFilesCount: 2, DeletedFilesCount: 1},
		iceberg.ManifestFile{Content: 1, AddedRowsCount: 40, AddedFilesCount: 1},
	)

	stats, err := Summarize(data)
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 1490, TotalDataFiles: 4}, stats)
}

func TestSummarizeFormatV1(t *testing.T) {
	schema := `{"type": "record", "name": "manifest_file", "fields": [
		{"name": "manifest_path", "type": "string"},
		{"name": "added_data_files_count", "type": ["null", "int"]},
		{"name": "existing_data_files_count", "type": ["null", "int"]},
		{"name": "added_rows_count", "type": ["null", "long"]},
		{"name": "existing_rows_count", "type": ["null", "long"]}
	]}`
	var data []byte
	data = avrotest.String(data, "s3://b/m.avro")
	data = avrotest.Long(avrotest.Union(data, 1), 2)
	data = avrotest.Union(data, 0)
	data = avrotest.Long(avrotest.Union(data, 1), 70)
	data = avrotest.Long(avrotest.Union(data, 1), 30)

	stats, err := Summarize(avrotest.File{Schema: schema, Blocks: []avrotest.Block{{Count: 1, Data: data}}}.Bytes())
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 100, TotalDataFiles: 2}, stats)
}

func TestSummarizeCorrupt(t *testing.T) {
	data := countsFile(avro.CodecNull)
	_, err := Summarize(data[:len(data)-3])
	assert.ErrorIs(t, err, avro.ErrFormat)
}

func TestCalculatorCompute(t *testing.T) {
	s3 := newFakeS3(t, map[string][]byte{
		"/warehouse/db/t/metadata/snap-1.avro": countsFile(avro.CodecDeflate),
	})
	metrics := NewMetrics(nil)
	calc := NewCalculator(s3.client(), metrics, discardLogger())

	stats, err := calc.Compute(context.Background(), "s3://warehouse/db/t/metadata/snap-1.avro", s3.creds())
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 5}, stats)
	assert.Equal(t, int32(1), s3.requests.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fetches))
}

func TestCalculatorFetchError(t *testing.T) {
	s3 := newFakeS3(t, map[string][]byte{})
	metrics := NewMetrics(nil)
	calc := NewCalculator(s3.client(), metrics, discardLogger())

	_, err := calc.Compute(context.Background(), "s3://warehouse/missing.avro", s3.creds())
	var fe *storage.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
	assert.Contains(t, fe.Body, "NoSuchKey")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues(failureFetch)))
}

func TestCalculatorDecodeError(t *testing.T) {
	s3 := newFakeS3(t, map[string][]byte{"/warehouse/bad.avro": []byte("not an avro file")})
	metrics := NewMetrics(nil)
	calc := NewCalculator(s3.client(), metrics, discardLogger())

	_, err := calc.Compute(context.Background(), "s3://warehouse/bad.avro", s3.creds())
	assert.ErrorIs(t, err, avro.ErrFormat)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues(failureDecode)))
}
