package s3

// Options defines options for S3-based storage.
type Options struct {
	// Prefix is prepended to all keys.
	Prefix string `json:"prefix,omitempty"`

	// Endpoint is the S3 server endpoint; defaults to AWS.
	Endpoint       string `json:"endpoint,omitempty"`
	DoNotUseTLS    bool   `json:"doNotUseTLS,omitempty"`
	DoNotVerifyTLS bool   `json:"doNotVerifyTLS,omitempty"`

	AccessKeyID     string `json:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty"`
}

func (o *Options) endpoint() string {
	if o.Endpoint == "" {
		return defaultEndpoint
	}

	return o.Endpoint
}
