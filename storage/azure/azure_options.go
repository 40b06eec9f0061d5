package azure

// Options defines options for Azure blob storage. The storage account is taken from the
// container location of each file.
type Options struct {
	// Prefix specifies additional string to prepend to all objects.
	Prefix string `json:"prefix,omitempty"`

	// Storage account access key
	StorageKey string `json:"storageKey,omitempty"`

	// Alternatively provide SAS Token
	SASToken string `json:"sasToken,omitempty"`

	// the tenant-ID/client-ID/client-Secret of the service principal
	TenantID     string `json:"tenantID,omitempty"`
	ClientID     string `json:"clientID,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`

	StorageDomain string `json:"storageDomain,omitempty"`

	// ServiceURL overrides the account URL, e.g. to connect to a storage emulator.
	// "{account}" is replaced with the storage account name.
	ServiceURL string `json:"serviceURL,omitempty"`

	// DoNotUseTLS connects to Azure storage over HTTP instead of HTTPS
	DoNotUseTLS bool `json:"doNotUseTLS,omitempty"`
}
