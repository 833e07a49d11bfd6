package iceberg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"iceberg-lens/storage"
)

func TestStorageCredentials(t *testing.T) {
	base := map[string]string{
		PropAccessKeyID:     "AKID",
		PropSecretAccessKey: "SECRET",
		PropEndpoint:        "https://acct.r2.cloudflarestorage.com",
	}
	with := func(extra map[string]string) map[string]string {
		out := map[string]string{}
		for k, v := range base {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	tests := []struct {
		name       string
		props      map[string]string
		wantOK     bool
		wantRegion string
	}{
		{"defaults to auto", base, true, "auto"},
		{"s3.region wins", with(map[string]string{PropRegion: "eu-west-1", PropClientRegion: "us-east-1"}), true, "eu-west-1"},
		{"region fallback", with(map[string]string{PropClientRegion: "us-east-1"}), true, "us-east-1"},
		{"missing key id", with(map[string]string{PropAccessKeyID: ""}), false, ""},
		{"missing secret", with(map[string]string{PropSecretAccessKey: ""}), false, ""},
		{"missing endpoint", with(map[string]string{PropEndpoint: ""}), false, ""},
		{"nil props", nil, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, ok := StorageCredentials(tt.props)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, storage.Credentials{}, creds)
				return
			}
			assert.Equal(t, "AKID", creds.AccessKeyID)
			assert.Equal(t, "SECRET", creds.SecretAccessKey)
			assert.Equal(t, base[PropEndpoint], creds.Endpoint)
			assert.Equal(t, tt.wantRegion, creds.Region)
		})
	}
}
