package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/mgo"
	"github.com/gocrud/mvc/logging"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Factory MongoDB 客户端工厂。客户端在第一次被解析时创建，驱动自身按需建立连接。
type Factory struct {
	logger  logging.Logger
	mu      sync.Mutex
	configs map[string]Options
	clients map[string]*mgo.Client
}

// NewFactory 创建客户端工厂
func NewFactory(logger logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Factory{
		logger:  logger,
		configs: make(map[string]Options),
		clients: make(map[string]*mgo.Client),
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
		return fmt.Errorf("mongo client '%s' already configured", opts.Name)
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
func (f *Factory) Get(name string) (*mgo.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}
	opts, ok := f.configs[name]
	if !ok {
		return nil, fmt.Errorf("mongo client '%s' not configured", name)
	}

	clientOpts := options.Client()
	if opts.Username != "" || opts.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	ctx := context.Background()
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	client, err := mgo.NewClient(ctx, opts.URI, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client '%s': %w", name, err)
	}

	f.clients[name] = client
	f.logger.Info("mongo client created", logging.Field{Key: "name", Value: name})
	return client, nil
}

// Name 实现 hosting.Named
func (f *Factory) Name() string {
	return "mongodb"
}

// Start 实现 hosting.HostedService
func (f *Factory) Start(ctx context.Context) error {
	return nil
}

// Stop 断开所有客户端
func (f *Factory) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*mgo.Client)
	return errors.Join(errs...)
}

// Close 在 10 秒内断开所有客户端
func (f *Factory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.Stop(ctx)
}
