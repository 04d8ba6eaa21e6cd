package config

// Dynamo describes how to reach the session table.
// Host is only set for a local DynamoDB.
type Dynamo struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Host            string
}

func (d Dynamo) Enabled() bool {
	return d.Region != ""
}
