package database

import (
	"errors"
	"fmt"

	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/logging"
	"gorm.io/gorm"
)

// Builder 数据库配置构建器
type Builder struct {
	configs []Options
	errors  []error
}

// NewBuilder 创建数据库构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// Add 添加一个数据库配置
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid database configuration for '%s': %w", name, err))
		return b
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Build 构建数据库工厂
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}

	factory := NewFactory(logger)
	for _, opts := range b.configs {
		if err := factory.Add(opts); err != nil {
			return nil, err
		}
	}
	return factory, nil
}

// Register 构建工厂并把每个数据库注册为容器中的惰性单例。
//
// 每个数据库以 Token(name) 注册；名为 default 的数据库（只配置了一个时即为它）
// 同时以 *gorm.DB 类型注册。工厂本身以 *Factory 类型注册。
func (b *Builder) Register(c *di.Container, logger logging.Logger) (*Factory, error) {
	factory, err := b.Build(logger)
	if err != nil {
		return nil, err
	}

	c.Register(di.TypeOf[*Factory](), factory)
	names := factory.Names()
	for _, name := range names {
		c.Register(Token(name), func() (*gorm.DB, error) {
			return factory.Get(name)
		})
	}

	if primary, ok := primaryName(names); ok {
		c.Register(di.TypeOf[*gorm.DB](), func(db *gorm.DB) *gorm.DB { return db },
			di.WithDeps(Token(primary)))
	}
	return factory, nil
}

func primaryName(names []string) (string, bool) {
	for _, name := range names {
		if name == DefaultName {
			return name, true
		}
	}
	if len(names) == 1 {
		return names[0], true
	}
	return "", false
}
