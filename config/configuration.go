package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Configuration 分层的只读配置。键以 ":" 或 "." 分隔层级
type Configuration interface {
	Get(key string) string
	// GetWithDefault 键不存在或为空字符串时返回 defaultValue
	GetWithDefault(key, defaultValue string) string
	GetInt(key string) (int, error)
	GetBool(key string) (bool, error)
	// GetSection 返回以 key 为根的子配置，key 不存在时为空配置
	GetSection(key string) Configuration
	// Bind 把 key 下的配置解码到 target，key 为空时绑定整个配置
	Bind(key string, target any) error
	// GetAll 返回配置树的副本
	GetAll() map[string]any
}

// Reloadable 可以从配置源重新加载的配置
type Reloadable interface {
	Configuration
	// Reload 按顺序重新加载所有配置源，失败时保留旧数据
	Reload() error
	// OnReload 注册重新加载成功后的回调
	OnReload(fn func())
}

// Source 配置源，Load 返回的树归调用方所有
type Source interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 按添加顺序叠加配置源，后添加的覆盖先添加的
type ConfigurationBuilder struct {
	sources []Source
	errs    []error
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source Source) *ConfigurationBuilder {
	b.sources = append(b.sources, source)
	return b
}

// AddFile 按扩展名（.json、.yaml、.yml）添加文件配置源
func (b *ConfigurationBuilder) AddFile(path string, optional ...bool) *ConfigurationBuilder {
	source, err := newFileSource(path, len(optional) > 0 && optional[0])
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.Add(source)
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&FileSource{Path: path, Optional: len(optional) > 0 && optional[0], Decode: json.Unmarshal})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&FileSource{Path: path, Optional: len(optional) > 0 && optional[0], Decode: decoders[".yaml"]})
}

// AddEnvironmentVariables 添加环境变量配置源，只读取带 prefix 的变量
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 读取 etcd 中 prefix 下的配置，kv 通常是 etcd 包注册的 *clientv3.Client
func (b *ConfigurationBuilder) AddEtcd(kv clientv3.KV, prefix string) *ConfigurationBuilder {
	if kv == nil {
		b.errs = append(b.errs, errors.New("config: etcd kv is nil"))
		return b
	}
	return b.Add(&EtcdSource{KV: kv, Prefix: prefix, Timeout: 5 * time.Second})
}

// Build 构建配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	return b.BuildReloadable()
}

// BuildReloadable 构建可重新加载的配置
func (b *ConfigurationBuilder) BuildReloadable() (Reloadable, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	cfg := &configuration{
		store:   NewValueStore(),
		sources: append([]Source(nil), b.sources...),
	}
	if err := cfg.Reload(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configuration 数据快照保存在 ValueStore 中，读取无锁
type configuration struct {
	store   *ValueStore
	sources []Source

	mu        sync.Mutex
	callbacks []func()
}

func newSection(data map[string]any) *configuration {
	store := NewValueStore()
	store.Store(data)
	return &configuration{store: store}
}

func (c *configuration) Reload() error {
	tree := map[string]any{}
	for _, source := range c.sources {
		loaded, err := source.Load()
		if err != nil {
			return fmt.Errorf("config: load %s: %w", source.Name(), err)
		}
		mergeMaps(tree, loaded)
	}
	c.store.Store(tree)

	c.mu.Lock()
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

func (c *configuration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *configuration) Get(key string) string {
	switch v := c.lookup(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return defaultValue
}

func (c *configuration) GetInt(key string) (int, error) {
	switch v := c.lookup(key).(type) {
	case nil:
		return 0, fmt.Errorf("config: key %s not found", key)
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("config: %s: %d overflows int", key, v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
			return 0, fmt.Errorf("config: %s: %v is not an int", key, v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("config: %s: cannot convert %T to int", key, v)
	}
}

func (c *configuration) GetBool(key string) (bool, error) {
	switch v := c.lookup(key).(type) {
	case nil:
		return false, fmt.Errorf("config: key %s not found", key)
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("config: %s: cannot convert %T to bool", key, v)
	}
}

func (c *configuration) GetSection(key string) Configuration {
	section, _ := c.lookup(key).(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	return newSection(section)
}

// Bind 经 JSON 编解码绑定，目标结构体使用 json 标签
func (c *configuration) Bind(key string, target any) error {
	value := c.lookup(key)
	if value == nil {
		return fmt.Errorf("config: key %s not found", key)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("config: bind %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: bind %s: %w", key, err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	out := map[string]any{}
	mergeMaps(out, c.store.Load())
	return out
}

// lookup 按路径逐层查找，空路径返回整棵树
func (c *configuration) lookup(path string) any {
	var node any = c.store.Load()
	for _, key := range globalPathCache.GetPathSegments(path) {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[key]
	}
	return node
}

// mergeMaps 把 src 深度合并到 dst，嵌套的 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, isMap := v.(map[string]any)
		if !isMap {
			dst[k] = v
			continue
		}
		dstMap, ok := dst[k].(map[string]any)
		if !ok {
			dstMap = make(map[string]any, len(srcMap))
			dst[k] = dstMap
		}
		mergeMaps(dstMap, srcMap)
	}
}
