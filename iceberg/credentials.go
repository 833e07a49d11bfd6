package iceberg

import "iceberg-lens/storage"

// Catalog config keys for vended object-storage credentials.
const (
	PropAccessKeyID     = "s3.access-key-id"
	PropSecretAccessKey = "s3.secret-access-key"
	PropEndpoint        = "s3.endpoint"
	PropRegion          = "s3.region"
	PropClientRegion    = "region"

	DefaultRegion = "auto"
)

// StorageCredentials extracts object-storage credentials from table config
// properties. It reports false when any of the key id, secret or endpoint is
// missing.
func StorageCredentials(props map[string]string) (storage.Credentials, bool) {
	creds := storage.Credentials{
		AccessKeyID:     props[PropAccessKeyID],
		SecretAccessKey: props[PropSecretAccessKey],
		Endpoint:        props[PropEndpoint],
		Region:          DefaultRegion,
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" || creds.Endpoint == "" {
		return storage.Credentials{}, false
	}
	if r := props[PropRegion]; r != "" {
		creds.Region = r
	} else if r := props[PropClientRegion]; r != "" {
		creds.Region = r
	}
	return creds, true
}
