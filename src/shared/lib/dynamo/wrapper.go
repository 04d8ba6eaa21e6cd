package dynamolib

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/stem-splitter/src/shared/config"
)

// empty stem lists still need to be written as lists, not dropped
var encoder = dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
	e.MarshalOptions.EnableEmptyCollections = true
	e.NullEmptyString = false
	e.NullEmptyByteSlice = false
})

type itemMap map[string]any

func (i itemMap) MarshalDynamo() (*dynamodb.AttributeValue, error) {
	var fields map[string]any = i
	return encoder.Encode(fields)
}

func NewDynamoDBWrapper(db *dynamo.DB) DynamoDBWrapper {
	return DynamoDBWrapper{DB: db}
}

func NewDynamoDBFromConfig(dynamoConfig config.Dynamo) DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	dbConfig := aws.NewConfig().
		WithCredentials(credentials.NewStaticCredentials(
			dynamoConfig.AccessKeyID,
			dynamoConfig.SecretAccessKey,
			"",
		)).
		WithRegion(dynamoConfig.Region)

	if dynamoConfig.Host != "" {
		dbConfig = dbConfig.WithEndpoint(dynamoConfig.Host)
	}

	return NewDynamoDBWrapper(dynamo.New(dbSession, dbConfig))
}

type DynamoDBWrapper struct {
	*dynamo.DB
}

type DynamoTableWrapper struct {
	dynamo.Table
}

func (d DynamoDBWrapper) Table(tableName string) DynamoTableWrapper {
	return DynamoTableWrapper{
		Table: d.DB.Table(tableName),
	}
}

func (d DynamoTableWrapper) Put(input map[string]any) *dynamo.Put {
	return d.Table.Put(itemMap(input))
}
