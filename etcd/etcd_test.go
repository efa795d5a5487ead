package etcd_test

import (
	"testing"
	"time"

	"github.com/gocrud/mvc/config"
	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/etcd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func TestRegisterClients(t *testing.T) {
	c := di.NewContainer()
	factory, err := etcd.NewBuilder().
		AddClient(etcd.DefaultName, nil).
		AddClient("registry", func(o *etcd.Options) {
			o.Endpoints = []string{"10.0.0.1:2379", "10.0.0.2:2379"}
			o.DialTimeout = time.Second
		}).
		Register(c, nil)
	require.NoError(t, err)
	defer factory.Close()

	assert.Equal(t, []string{"default", "registry"}, factory.Names())
	assert.True(t, c.Has(etcd.Token("default")))
	assert.True(t, c.Has(etcd.Token("registry")))
	assert.True(t, c.Has(di.TypeOf[*clientv3.Client]()))

	// 注册不会创建客户端
	reg, ok := c.Registration(etcd.Token("registry"))
	require.True(t, ok)
	_, built := reg.Instance()
	assert.False(t, built)
}

func TestBuilderErrors(t *testing.T) {
	_, err := etcd.NewBuilder().
		AddClient("no-endpoints", func(o *etcd.Options) { o.Endpoints = nil }).
		AddClient("no-timeout", func(o *etcd.Options) { o.DialTimeout = 0 }).
		Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints are required")
	assert.Contains(t, err.Error(), "timeout must be positive")

	factory, err := etcd.NewBuilder().Build(nil)
	require.NoError(t, err)
	_, err = factory.Get("missing")
	assert.Error(t, err)
}

func TestClientAsConfigurationSource(t *testing.T) {
	c := di.NewContainer()
	factory, err := etcd.NewBuilder().
		AddClient(etcd.DefaultName, func(o *etcd.Options) {
			o.Endpoints = []string{"127.0.0.1:1"}
			o.DialTimeout = 100 * time.Millisecond
		}).
		Register(c, nil)
	require.NoError(t, err)
	defer factory.Close()

	cli, err := di.Resolve[*clientv3.Client](c)
	require.NoError(t, err)

	// 端点不可达，加载在超时后失败
	_, err = config.NewConfigurationBuilder().
		Add(&config.EtcdSource{KV: cli, Prefix: "/mvc", Timeout: 200 * time.Millisecond}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd:/mvc")
}
