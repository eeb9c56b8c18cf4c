package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medconnect/agent/internal/schema"
)

const (
	schemaCacheKey = "schema:descriptor"
	schemaCacheTTL = 5 * time.Minute
)

// SchemaCache caches the store-verified schema descriptor in Redis so
// restarts and replicas skip introspection while the entry is fresh
type SchemaCache struct {
	client *Client
}

// NewSchemaCache creates a new schema cache
func NewSchemaCache(client *Client) *SchemaCache {
	return &SchemaCache{client: client}
}

// Get retrieves the cached descriptor, (nil, nil) on a miss
func (c *SchemaCache) Get(ctx context.Context) (*schema.Descriptor, error) {
	data, err := c.client.rdb.Get(ctx, schemaCacheKey).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var desc schema.Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema descriptor: %w", err)
	}
	return &desc, nil
}

// Set caches the descriptor
func (c *SchemaCache) Set(ctx context.Context, desc *schema.Descriptor) error {
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("failed to marshal schema descriptor: %w", err)
	}
	return c.client.rdb.Set(ctx, schemaCacheKey, data, schemaCacheTTL).Err()
}

// Invalidate removes the cached descriptor
func (c *SchemaCache) Invalidate(ctx context.Context) error {
	return c.client.rdb.Del(ctx, schemaCacheKey).Err()
}
