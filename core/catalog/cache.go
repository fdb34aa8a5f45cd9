package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const snapshotKey = "catalog:snapshot"

// Catalog serves snapshots of the CMS content, going through Redis so a busy
// storefront doesn't hammer the hosted query endpoint. Cache trouble is never
// fatal: reads fall through to the CMS and misses just refill.
type Catalog struct {
	client *Client
	rdb    *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func New(client *Client, rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		client: client,
		rdb:    rdb,
		ttl:    ttl,
		log:    log,
	}
}

func (c *Catalog) Snapshot(ctx context.Context) (Snapshot, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
		if err == nil {
			var products []Product
			if err := json.Unmarshal(raw, &products); err == nil {
				return BuildSnapshot(products), nil
			}
			c.log.Warnf("discarding undecodable cached snapshot: %v", err)
		} else if err != redis.Nil {
			c.log.Warnf("reading cached snapshot: %v", err)
		}
	}

	products, err := c.client.Products(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		raw, err := json.Marshal(products)
		if err == nil {
			if err := c.rdb.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
				c.log.Warnf("caching snapshot: %v", err)
			}
		}
	}

	return BuildSnapshot(products), nil
}

func (c *Catalog) Client() *Client { return c.client }
