package stats

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"iceberg-lens/avro/avrotest"
	"iceberg-lens/iceberg"
	"iceberg-lens/storage"
)

const manifestListSchema = `{"type": "record", "name": "manifest_file", "fields": [
	{"name": "manifest_path", "type": "string"},
	{"name": "manifest_length", "type": "long"},
	{"name": "partition_spec_id", "type": "int"},
	{"name": "content", "type": "int"},
	{"name": "sequence_number", "type": "long"},
	{"name": "added_snapshot_id", "type": "long"},
	{"name": "added_files_count", "type": "int"},
	{"name": "existing_files_count", "type": "int"},
	{"name": "deleted_files_count", "type": "int"},
	{"name": "added_rows_count", "type": "long"},
	{"name": "existing_rows_count", "type": "long"},
	{"name": "deleted_rows_count", "type": "long"},
	{"name": "partitions", "type": ["null", {"type": "array", "items": {
		"type": "record", "name": "r508", "fields": [
			{"name": "contains_null", "type": "boolean"},
			{"name": "lower_bound", "type": ["null", "bytes"]},
			{"name": "upper_bound", "type": ["null", "bytes"]}
		]}}], "default": null},
	{"name": "key_metadata", "type": ["null", "bytes"], "default": null}
]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodeManifest(dst []byte, mf iceberg.ManifestFile) []byte {
	dst = avrotest.String(dst, "s3://warehouse/db/t/metadata/m0.avro")
	dst = avrotest.Long(dst, 6021)
	dst = avrotest.Long(dst, 0)
	dst = avrotest.Long(dst, mf.Content)
	dst = avrotest.Long(dst, 3)
	dst = avrotest.Long(dst, 8744736658442914487)
	dst = avrotest.Long(dst, mf.AddedFilesCount)
	dst = avrotest.Long(dst, mf.ExistingFilesCount)
	dst = avrotest.Long(dst, mf.DeletedFilesCount)
	dst = avrotest.Long(dst, mf.AddedRowsCount)
	dst = avrotest.Long(dst, mf.ExistingRowsCount)
	dst = avrotest.Long(dst, mf.DeletedRowsCount)

	dst = avrotest.Union(dst, 1)
	dst = avrotest.Long(dst, 1)
	dst = avrotest.Boolean(dst, false)
	dst = avrotest.Union(dst, 1)
	dst = avrotest.Bytes(dst, []byte{0x01, 0x00, 0x00, 0x00})
	dst = avrotest.Union(dst, 0)
	dst = avrotest.Long(dst, 0)

	return avrotest.Union(dst, 0)
}

func manifestList(codec string, entries ...iceberg.ManifestFile) []byte {
	var data []byte
	for _, mf := range entries {
		data = encodeManifest(data, mf)
	}
	return avrotest.File{
		Schema: manifestListSchema,
		Codec:  codec,
		Meta:   map[string][]byte{"format-version": []byte("2")},
		Blocks: []avrotest.Block{{Count: int64(len(entries)), Data: data}},
	}.Bytes()
}

// fakeS3 serves objects at /bucket/key and counts signed requests.
type fakeS3 struct {
	srv      *httptest.Server
	requests atomic.Int32

	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3(t *testing.T, objects map[string][]byte) *fakeS3 {
	t.Helper()
	f := &fakeS3{objects: objects}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if !strings.HasPrefix(r.Header.Get("Authorization"), storage.SigningAlgorithm+" Credential=AKID/") {
		http.Error(w, "<Error><Code>AccessDenied</Code></Error>", http.StatusForbidden)
		return
	}

	f.mu.Lock()
	data, ok := f.objects[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "<Error><Code>NoSuchKey</Code></Error>", http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

func (f *fakeS3) creds() storage.Credentials {
	return storage.Credentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        f.srv.URL,
		Region:          "auto",
	}
}

func (f *fakeS3) props() map[string]string {
	return map[string]string{
		iceberg.PropAccessKeyID:     "AKID",
		iceberg.PropSecretAccessKey: "SECRET",
		iceberg.PropEndpoint:        f.srv.URL,
	}
}

func (f *fakeS3) client() *storage.Client {
	return storage.NewClient(
		storage.WithHTTPClient(f.srv.Client()),
		storage.WithLogger(discardLogger()),
	)
}
