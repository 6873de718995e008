package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newRouter(rdb redis.UniversalClient, calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items", ResponseCache(rdb, NamespaceResources, time.Minute), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"calls": *calls})
	})
	return r
}

func get(r *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func TestResponseCache(t *testing.T) {
	t.Run("Miss then hit", func(t *testing.T) {
		_, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusOK)

		first := get(r, "/items?type=room")
		assert.Equal(t, "MISS", first.Header().Get(StatusHeader))
		assert.JSONEq(t, `{"calls":1}`, first.Body.String())

		second := get(r, "/items?type=room")
		assert.Equal(t, "HIT", second.Header().Get(StatusHeader))
		assert.JSONEq(t, `{"calls":1}`, second.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
		assert.Equal(t, 1, calls)
	})

	t.Run("Query string is part of the key", func(t *testing.T) {
		_, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusOK)

		get(r, "/items?type=room")
		w := get(r, "/items?type=material")
		assert.Equal(t, "MISS", w.Header().Get(StatusHeader))
		assert.Equal(t, 2, calls)
	})

	t.Run("Errors are not cached", func(t *testing.T) {
		_, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusInternalServerError)

		get(r, "/items")
		w := get(r, "/items")
		assert.Equal(t, "MISS", w.Header().Get(StatusHeader))
		assert.Equal(t, 2, calls)
	})

	t.Run("Entries expire", func(t *testing.T) {
		mr, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusOK)

		get(r, "/items")
		mr.FastForward(2 * time.Minute)
		get(r, "/items")
		assert.Equal(t, 2, calls)
	})

	t.Run("Nil client passes through", func(t *testing.T) {
		calls := 0
		r := newRouter(nil, &calls, http.StatusOK)

		w := get(r, "/items")
		get(r, "/items")
		assert.Empty(t, w.Header().Get(StatusHeader))
		assert.Equal(t, 2, calls)
	})

	t.Run("Purge invalidates cached entries", func(t *testing.T) {
		_, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusOK)

		get(r, "/items")
		NewInvalidator(rdb).Purge(context.Background(), NamespaceResources)
		w := get(r, "/items")
		assert.Equal(t, "MISS", w.Header().Get(StatusHeader))
		assert.Equal(t, 2, calls)
	})

	t.Run("Response computed across a purge is not served", func(t *testing.T) {
		_, rdb := newRedis(t)
		inv := NewInvalidator(rdb)
		calls := 0

		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/items", ResponseCache(rdb, NamespaceResources, time.Minute), func(c *gin.Context) {
			calls++
			if calls == 1 {
				// A write lands after this reader loaded its data but before the
				// middleware stores the response.
				inv.Purge(c.Request.Context(), NamespaceResources)
			}
			c.JSON(http.StatusOK, gin.H{"calls": calls})
		})

		first := get(r, "/items")
		assert.JSONEq(t, `{"calls":1}`, first.Body.String())

		second := get(r, "/items")
		assert.Equal(t, "MISS", second.Header().Get(StatusHeader))
		assert.JSONEq(t, `{"calls":2}`, second.Body.String())

		third := get(r, "/items")
		assert.Equal(t, "HIT", third.Header().Get(StatusHeader))
		assert.JSONEq(t, `{"calls":2}`, third.Body.String())
	})

	t.Run("Redis outage degrades to a miss", func(t *testing.T) {
		mr, rdb := newRedis(t)
		calls := 0
		r := newRouter(rdb, &calls, http.StatusOK)
		mr.Close()

		w := get(r, "/items")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
	})
}

func TestInvalidator(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)

	require.NoError(t, rdb.Set(ctx, keyPrefix+NamespaceResources+":a", "1", 0).Err())
	require.NoError(t, rdb.Set(ctx, keyPrefix+NamespaceResources+":b", "1", 0).Err())
	require.NoError(t, rdb.Set(ctx, keyPrefix+NamespaceEvents+":c", "1", 0).Err())

	NewInvalidator(rdb).Purge(ctx, NamespaceResources)

	assert.False(t, mr.Exists(keyPrefix+NamespaceResources+":a"))
	assert.False(t, mr.Exists(keyPrefix+NamespaceResources+":b"))
	assert.True(t, mr.Exists(keyPrefix+NamespaceEvents+":c"))

	gen, err := mr.Get(genPrefix + NamespaceResources)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.False(t, mr.Exists(genPrefix+NamespaceEvents))

	NewInvalidator(rdb).Purge(ctx, NamespaceResources)
	gen, err = mr.Get(genPrefix + NamespaceResources)
	require.NoError(t, err)
	assert.Equal(t, "2", gen)

	var nilInv *Invalidator
	assert.NotPanics(t, func() { nilInv.Purge(ctx, NamespaceEvents) })
	assert.NotPanics(t, func() { NewInvalidator(nil).Purge(ctx, NamespaceEvents) })
}
