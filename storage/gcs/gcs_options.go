package gcs

import "encoding/json"

// Options defines options Google Cloud Storage-backed storage.
type Options struct {
	// Prefix specifies additional string to prepend to all objects.
	Prefix string `json:"prefix,omitempty"`

	// ServiceAccountCredentialsFile specifies the name of the file with GCS credentials.
	ServiceAccountCredentialsFile string `json:"credentialsFile,omitempty"`

	// ServiceAccountCredentialJSON specifies the raw JSON credentials.
	ServiceAccountCredentialJSON json.RawMessage `json:"credentials,omitempty"`

	// Endpoint overrides the GCS API endpoint, typically to connect to an emulator
	// without authentication.
	Endpoint string `json:"endpoint,omitempty"`
}
