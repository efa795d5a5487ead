package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/mvc/logging"
	"github.com/redis/go-redis/v9"
)

// Factory Redis 客户端工厂。客户端在第一次被解析时创建。
type Factory struct {
	logger  logging.Logger
	mu      sync.Mutex
	configs map[string]Options
	clients map[string]*redis.Client
}

// NewFactory 创建客户端工厂
func NewFactory(logger logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Factory{
		logger:  logger,
		configs: make(map[string]Options),
		clients: make(map[string]*redis.Client),
	}
}

// Add 添加一份客户端配置
func (f *Factory) Add(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.configs[opts.Name]; exists {
		return fmt.Errorf("redis client '%s' already configured", opts.Name)
	}
	f.configs[opts.Name] = opts
	return nil
}

// Names 返回所有已配置的客户端名称
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.configs))
	for name := range f.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get 获取指定名称的客户端
func (f *Factory) Get(name string) (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}
	opts, ok := f.configs[name]
	if !ok {
		return nil, fmt.Errorf("redis client '%s' not configured", name)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})

	if opts.Ping {
		ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis '%s': %w", name, err)
		}
	}

	f.clients[name] = client
	f.logger.Info("redis client created",
		logging.Field{Key: "name", Value: name},
		logging.Field{Key: "addr", Value: opts.Addr},
		logging.Field{Key: "db", Value: opts.DB})
	return client, nil
}

// Name 实现 hosting.Named
func (f *Factory) Name() string {
	return "redis"
}

// Start 实现 hosting.HostedService
func (f *Factory) Start(ctx context.Context) error {
	return nil
}

// Stop 关闭所有客户端
func (f *Factory) Stop(ctx context.Context) error {
	return f.Close()
}

// Close 关闭所有客户端
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*redis.Client)
	return errors.Join(errs...)
}
