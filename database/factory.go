package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/mvc/logging"
	"gorm.io/gorm"
)

// Factory 数据库连接工厂。连接在第一次被解析时打开，Stop 时统一关闭。
type Factory struct {
	logger  logging.Logger
	mu      sync.Mutex
	configs map[string]Options
	dbs     map[string]*gorm.DB
}

// NewFactory 创建数据库工厂
func NewFactory(logger logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Factory{
		logger:  logger,
		configs: make(map[string]Options),
		dbs:     make(map[string]*gorm.DB),
	}
}

// Add 添加一份已验证的配置
func (f *Factory) Add(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.configs[opts.Name]; exists {
		return fmt.Errorf("database '%s' already configured", opts.Name)
	}
	f.configs[opts.Name] = opts
	return nil
}

// Names 返回所有已配置的名称
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

// Get 返回指定名称的数据库，首次调用时打开连接并执行自动迁移
func (f *Factory) Get(name string) (*gorm.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if db, ok := f.dbs[name]; ok {
		return db, nil
	}
	opts, ok := f.configs[name]
	if !ok {
		return nil, fmt.Errorf("database '%s' not configured", name)
	}

	db, err := gorm.Open(opts.Dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("auto migrate failed for '%s': %w", name, err)
		}
	}

	f.dbs[name] = db
	f.logger.Info("database opened", logging.Field{Key: "name", Value: name})
	return db, nil
}

// Name 实现 hosting.Named
func (f *Factory) Name() string {
	return "database"
}

// Start 实现 hosting.HostedService，连接按需打开，这里无事可做
func (f *Factory) Start(ctx context.Context) error {
	return nil
}

// Stop 关闭所有已打开的连接
func (f *Factory) Stop(ctx context.Context) error {
	return f.Close()
}

// Close 关闭所有已打开的连接
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, db := range f.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database '%s': %w", name, err))
		}
	}
	f.dbs = make(map[string]*gorm.DB)
	return errors.Join(errs...)
}
