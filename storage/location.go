package storage

import (
	"fmt"
	"strings"
)

const s3Scheme = "s3://"

// ParseLocation splits an s3://bucket/key URI at the first slash after the
// scheme.
func ParseLocation(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("location %q is not an %s URI", location, s3Scheme)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("location %q must be %sbucket/key", location, s3Scheme)
	}
	return bucket, key, nil
}
