package mongodb

import (
	"fmt"
	"time"
)

// DefaultName 默认客户端名称，它同时以 *mgo.Client 类型注册到容器
const DefaultName = "default"

// Token 返回客户端在容器中的命名令牌
func Token(name string) string {
	return "mongodb:" + name
}

// Options MongoDB 客户端配置选项
type Options struct {
	Name        string
	URI         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *Options {
	return &Options{
		Name:        name,
		URI:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return fmt.Errorf("mongo min pool size exceeds max pool size")
	}
	return nil
}
