package config

import (
	"strings"
	"sync"
)

// PathCache 缓存配置路径的切分结果
type PathCache struct {
	cache sync.Map
}

// GetPathSegments 把 "a:b.c" 切分为 ["a" "b" "c"]，空片段被忽略
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	c.cache.Store(path, parts)
	return parts
}

var globalPathCache = &PathCache{}
