package ginblog

type DynamoDBConfig struct {
	TableName         string
	Region            string
	Endpoint          string
	SkipTableCreation bool
}

func NewDynamoDBConfig() *DynamoDBConfig {
	return &DynamoDBConfig{TableName: "ginblog_cache"}
}

func (c *DynamoDBConfig) WithTableName(name string) *DynamoDBConfig {
	c.TableName = name
	return c
}

func (c *DynamoDBConfig) WithRegion(region string) *DynamoDBConfig {
	c.Region = region
	return c
}

// WithEndpoint points the client at DynamoDB Local or another compatible store.
func (c *DynamoDBConfig) WithEndpoint(endpoint string) *DynamoDBConfig {
	c.Endpoint = endpoint
	return c
}

func (c *DynamoDBConfig) WithSkipTableCreation(skip bool) *DynamoDBConfig {
	c.SkipTableCreation = skip
	return c
}
