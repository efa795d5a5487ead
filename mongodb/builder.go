package mongodb

import (
	"errors"
	"fmt"

	"github.com/gocrud/mgo"
	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/logging"
)

// Builder MongoDB 客户端配置构建器
type Builder struct {
	configs []Options
	errors  []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个客户端配置
func (b *Builder) AddClient(name, uri string, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
		return b
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Build 构建客户端工厂
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

// Register 构建工厂并把每个客户端注册为容器中的惰性单例。
// 名为 default 的客户端（只配置了一个时即为它）同时以 *mgo.Client 类型注册。
func (b *Builder) Register(c *di.Container, logger logging.Logger) (*Factory, error) {
	factory, err := b.Build(logger)
	if err != nil {
		return nil, err
	}

	c.Register(di.TypeOf[*Factory](), factory)
	names := factory.Names()
	for _, name := range names {
		c.Register(Token(name), func() (*mgo.Client, error) {
			return factory.Get(name)
		})
	}

	if primary, ok := primaryName(names); ok {
		c.Register(di.TypeOf[*mgo.Client](), func(client *mgo.Client) *mgo.Client { return client },
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
