package store

// Config holds configuration for the Store.
type Config struct {
	// ConsistentReads makes Get use strongly consistent reads so that
	// read-before-write checks observe the latest committed item.
	// Default: true
	ConsistentReads bool

	// PageSize caps the number of items evaluated per Query/Scan page.
	// Results are always paginated to completion.
	// Default: 0 (DynamoDB's 1 MB page limit)
	// Max: 1000
	PageSize int32
}

// DefaultConfig returns the configuration used by the roster services.
func DefaultConfig() Config {
	return Config{
		ConsistentReads: true,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.PageSize < 0 {
		c.PageSize = 0
	}
	if c.PageSize > 1000 {
		c.PageSize = 1000
	}
}
