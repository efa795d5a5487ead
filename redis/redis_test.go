package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CacheService 依赖 Redis 客户端的服务
type CacheService struct {
	Cache *goredis.Client `di:"redis:cache"`
	Queue *goredis.Client `di:"redis:queue,?"`
}

func TestRegisterIsLazy(t *testing.T) {
	c := di.NewContainer()
	factory, err := redis.NewBuilder().
		AddClient("cache", func(o *redis.Options) {
			// 不可达地址，惰性创建不会连接
			o.Addr = "127.0.0.1:1"
		}).
		Register(c, nil)
	require.NoError(t, err)
	defer factory.Close()

	svc, err := di.Resolve[*CacheService](c)
	require.NoError(t, err)
	require.NotNil(t, svc.Cache)
	assert.Nil(t, svc.Queue)
	assert.Equal(t, "127.0.0.1:1", svc.Cache.Options().Addr)

	client, err := di.Resolve[*goredis.Client](c)
	require.NoError(t, err)
	assert.Same(t, svc.Cache, client)
}

func TestPingFailsForUnreachableServer(t *testing.T) {
	c := di.NewContainer()
	_, err := redis.NewBuilder().
		AddClient(redis.DefaultName, func(o *redis.Options) {
			o.Addr = "127.0.0.1:1"
			o.DialTimeout = 200 * time.Millisecond
			o.MaxRetries = -1
			o.Ping = true
		}).
		Register(c, nil)
	require.NoError(t, err)

	_, err = di.Resolve[*goredis.Client](c)
	assert.Error(t, err)
}

func TestBuilderErrors(t *testing.T) {
	_, err := redis.NewBuilder().
		AddClient("invalid", func(o *redis.Options) { o.Addr = "" }).
		AddClient("negative", func(o *redis.Options) { o.DB = -1 }).
		Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
	assert.Contains(t, err.Error(), "non-negative")

	_, err = redis.NewBuilder().
		AddClient("duplicate", nil).
		AddClient("duplicate", nil).
		Build(nil)
	assert.Error(t, err)
}

func TestFactoryLifecycle(t *testing.T) {
	factory, err := redis.NewBuilder().AddClient("a", nil).AddClient("b", nil).Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, factory.Names())
	assert.Equal(t, "redis", factory.Name())

	first, err := factory.Get("a")
	require.NoError(t, err)
	second, err := factory.Get("a")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = factory.Get("missing")
	assert.Error(t, err)

	require.NoError(t, factory.Start(context.Background()))
	assert.NoError(t, factory.Stop(context.Background()))
}
