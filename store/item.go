package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a raw DynamoDB item.
type Item map[string]types.AttributeValue

// GetString returns the string value of attr, or "" when it is absent or not a string.
func (i Item) GetString(attr string) string {
	if v, ok := i[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Key identifies an item by its string partition key.
type Key struct {
	// Name is the partition key attribute (e.g., "orgId").
	Name string

	// Value is the partition key value.
	Value string
}

// attributes returns the key in DynamoDB wire form.
func (k Key) attributes() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		k.Name: &types.AttributeValueMemberS{Value: k.Value},
	}
}

// Index names a secondary index and the string attribute it is partitioned on.
type Index struct {
	// Name is the GSI name (e.g., "NameIndex").
	Name string

	// Attribute is the index partition key attribute (e.g., "name").
	Attribute string
}

// TableSchema describes a table: its name, partition key and secondary indexes.
// It is used by Memory and by table bootstrapping.
type TableSchema struct {
	Name    string
	KeyAttr string
	Indexes []Index
}
