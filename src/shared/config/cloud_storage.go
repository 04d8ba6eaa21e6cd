package config

type CloudStorage struct {
	StorageHost string
	SecretKey   string
	BucketName  string
	// HostEndpoint points the client at a local emulator instead of Google
	HostEndpoint string
}

func (c CloudStorage) IsLocal() bool {
	return c.HostEndpoint != ""
}
