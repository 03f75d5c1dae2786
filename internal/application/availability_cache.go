package application

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// availabilityCache stores recent availability probe results so that repeated
// conflict sweeps over the same windows do not hammer the bookings table. It
// is purged whenever a booking is written.
type availabilityCache struct {
	lru *expirable.LRU[string, bool]
}

func newAvailabilityCache(ttl time.Duration, maxEntries int) *availabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &availabilityCache{
		lru: expirable.NewLRU[string, bool](maxEntries, nil, ttl),
	}
}

func (c *availabilityCache) Get(key string) (bool, bool) {
	if c == nil || c.lru == nil {
		return false, false
	}
	return c.lru.Get(key)
}

func (c *availabilityCache) Store(key string, available bool) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(key, available)
}

func (c *availabilityCache) Invalidate() {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Purge()
}

func availabilityCacheKey(query AvailabilityQuery) string {
	builder := strings.Builder{}
	builder.WriteString(query.ServiceType)
	builder.WriteString("|")
	builder.WriteString(query.ResourceID)
	builder.WriteString("|")
	builder.WriteString(query.Start.UTC().Format(time.RFC3339Nano))
	builder.WriteString("|")
	builder.WriteString(query.End.UTC().Format(time.RFC3339Nano))
	return builder.String()
}
