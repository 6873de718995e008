// Package cache provides a Redis-backed response cache for read-heavy list
// endpoints and the invalidator used by write paths.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "cache:"
	genPrefix    = "cache:gen:"
	StatusHeader = "X-Cache"
)

// Namespaces group cached responses so a write can drop them in one pass.
const (
	NamespaceResources = "resources"
	NamespaceEvents    = "events"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

func hashKey(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// KeyFor builds the cache key for a GET request inside one generation of namespace.
// It returns "" for requests that must not be cached.
func KeyFor(c *gin.Context, namespace, gen string) string {
	if c.Request.Method != http.MethodGet {
		return ""
	}
	path := c.Request.URL.Path
	return keyPrefix + namespace + ":" + gen + ":" + hashKey(path+"|"+c.Request.URL.RawQuery)
}

// generation returns the namespace's current generation. Purge bumps it, so
// a response computed before a write is stored under a key no reader asks for.
func generation(ctx context.Context, rdb redis.UniversalClient, namespace string) (string, error) {
	gen, err := rdb.Get(ctx, genPrefix+namespace).Result()
	if err == redis.Nil {
		return "0", nil
	}
	return gen, err
}

// ResponseCache serves cached 2xx bodies for GET requests and stores fresh ones.
// A nil client turns the middleware into a pass-through.
func ResponseCache(rdb redis.UniversalClient, namespace string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		gen, err := generation(ctx, rdb, namespace)
		if err != nil {
			slog.WarnContext(ctx, "cache generation lookup failed", "namespace", namespace, "error", err.Error())
			c.Next()
			return
		}
		key := KeyFor(c, namespace, gen)

		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set(StatusHeader, "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		} else if err != nil && err != redis.Nil {
			slog.WarnContext(ctx, "cache lookup failed", "key", key, "error", err.Error())
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = bw
		c.Writer.Header().Set(StatusHeader, "MISS")

		c.Next()

		if bw.Status() < 200 || bw.Status() >= 300 {
			return
		}
		// Per-request headers such as the request id must not be replayed.
		header := map[string][]string{}
		if ct := bw.Header().Values("Content-Type"); len(ct) > 0 {
			header["Content-Type"] = ct
		}
		var out bytes.Buffer
		if err := gob.NewEncoder(&out).Encode(cachedBody{Status: bw.Status(), Header: header, Body: bw.buf.Bytes()}); err != nil {
			return
		}
		if err := rdb.Set(ctx, key, out.Bytes(), ttl).Err(); err != nil {
			slog.WarnContext(ctx, "cache store failed", "key", key, "error", err.Error())
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Invalidator drops cached responses after writes. The zero value and a nil
// receiver are both no-ops so callers never need to check whether Redis is configured.
type Invalidator struct {
	rdb redis.UniversalClient
}

func NewInvalidator(rdb redis.UniversalClient) *Invalidator {
	return &Invalidator{rdb: rdb}
}

// Purge moves each namespace to a new generation and deletes the entries of
// the old ones. Readers that were in flight during the write store their
// response under the old generation, where it is never served.
func (inv *Invalidator) Purge(ctx context.Context, namespaces ...string) {
	if inv == nil || inv.rdb == nil {
		return
	}
	for _, ns := range namespaces {
		if err := inv.rdb.Incr(ctx, genPrefix+ns).Err(); err != nil {
			slog.WarnContext(ctx, "cache generation bump failed", "namespace", ns, "error", err.Error())
		}
		iter := inv.rdb.Scan(ctx, 0, keyPrefix+ns+":*", 0).Iterator()
		for iter.Next(ctx) {
			if err := inv.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				slog.WarnContext(ctx, "cache purge failed", "key", iter.Val(), "error", err.Error())
			}
		}
		if err := iter.Err(); err != nil {
			slog.WarnContext(ctx, "cache scan failed", "namespace", ns, "error", err.Error())
		}
	}
}
