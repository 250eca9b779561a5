package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// PageLister serves pages of an entity; both the SQL repositories and
// the cache decorator satisfy it.
type PageLister[T any] interface {
	FindPage(ctx context.Context, p query.Params) (query.Page[T], error)
}

// CachedLister is a cache-aside decorator around a PageLister. Pages
// are cached in Redis under a key derived from the canonical query
// parameters and a per-entity generation counter; writes bump the
// generation, which leaves stale entries behind to expire by TTL
// instead of scanning for them.
//
// The cache degrades gracefully: any Redis failure is logged and the
// request falls through to the underlying lister.
type CachedLister[T any] struct {
	inner  PageLister[T]
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

// NewCachedLister decorates inner with a Redis page cache. prefix
// namespaces one entity's pages, e.g. "catalog:books".
func NewCachedLister[T any](inner PageLister[T], client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *CachedLister[T] {
	return &CachedLister[T]{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

// FindPage returns a cached page when present, otherwise consults the
// underlying lister and stores the result. Query-validation errors are
// never cached.
func (c *CachedLister[T]) FindPage(ctx context.Context, p query.Params) (query.Page[T], error) {
	key := c.pageKey(ctx, p)

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		var page query.Page[T]
		if jsonErr := json.Unmarshal([]byte(cached), &page); jsonErr == nil {
			return page, nil
		}
		// Undecodable entry: drop it and fall through.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("page cache read failed", "key", key, "error", err)
	}

	page, err := c.inner.FindPage(ctx, p)
	if err != nil {
		return page, err
	}

	if data, jsonErr := json.Marshal(page); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.log.Warn("page cache write failed", "key", key, "error", setErr)
		}
	}
	return page, nil
}

// Invalidate bumps the entity's generation counter so that every
// cached page for it misses from now on.
func (c *CachedLister[T]) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.log.Warn("page cache invalidation failed", "prefix", c.prefix, "error", err)
	}
}

func (c *CachedLister[T]) generationKey() string {
	return c.prefix + ":gen"
}

func (c *CachedLister[T]) pageKey(ctx context.Context, p query.Params) string {
	generation, err := c.client.Get(ctx, c.generationKey()).Result()
	if err != nil {
		generation = "0"
	}
	return c.prefix + ":" + generation + ":" + canonicalParams(p)
}

// canonicalParams renders Params into a stable cache key component:
// identical queries hash identically regardless of map iteration
// order.
func canonicalParams(p query.Params) string {
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.Filters[k])
		b.WriteByte(';')
	}
	b.WriteString("sort=")
	b.WriteString(p.SortBy)
	b.WriteString(";desc=")
	b.WriteString(strconv.FormatBool(p.SortDescending))
	b.WriteString(";page=")
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteString(";size=")
	b.WriteString(strconv.Itoa(p.PageSize))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
