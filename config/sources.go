package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// Decoder 把文件内容解码为配置树
type Decoder func(data []byte, v any) error

// decoders 按扩展名选择文件格式
var decoders = map[string]Decoder{
	".json": json.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
}

// FileSource 文件配置源
type FileSource struct {
	Path     string
	Optional bool
	Decode   Decoder
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

func (s *FileSource) Load() (map[string]any, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) && s.Optional {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	tree := map[string]any{}
	if err := s.Decode(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return tree, nil
}

func newFileSource(path string, optional bool) (*FileSource, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("config: unsupported file type %q", path)
	}
	return &FileSource{Path: path, Optional: optional, Decode: decode}, nil
}

// EnvSource 环境变量配置源。
// 去掉前缀后的变量名转为小写，"_" 作为层级分隔，APP_SERVER_PORT 对应 server:port
type EnvSource struct {
	Prefix string

	environ func() []string
}

func (s *EnvSource) Name() string {
	return "env:" + s.Prefix
}

func (s *EnvSource) Load() (map[string]any, error) {
	environ := s.environ
	if environ == nil {
		environ = os.Environ
	}

	tree := map[string]any{}
	for _, kv := range environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, s.Prefix) {
			continue
		}
		path := strings.FieldsFunc(strings.ToLower(key[len(s.Prefix):]), func(r rune) bool { return r == '_' })
		if len(path) == 0 {
			continue
		}
		setPath(tree, path, parseScalar(value))
	}
	return tree, nil
}

// InMemorySource 内存配置源，每次加载返回 Data 的深拷贝
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "memory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	tree := map[string]any{}
	mergeMaps(tree, s.Data)
	return tree, nil
}

// EtcdSource 读取 etcd 中 Prefix 下的全部键。
// 键去掉前缀后按 "/" 分层，值按 YAML 解析（JSON 同样适用），解析失败时保留原始字符串
type EtcdSource struct {
	KV      clientv3.KV
	Prefix  string
	Timeout time.Duration
}

func (s *EtcdSource) Name() string {
	return "etcd:" + s.Prefix
}

func (s *EtcdSource) Load() (map[string]any, error) {
	ctx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	prefix := s.Prefix
	if prefix == "" {
		prefix = "/"
	}
	resp, err := s.KV.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", prefix, err)
	}

	tree := map[string]any{}
	for _, kv := range resp.Kvs {
		rel := strings.TrimPrefix(string(kv.Key), s.Prefix)
		path := strings.FieldsFunc(rel, func(r rune) bool { return r == '/' })
		if len(path) == 0 {
			continue
		}
		setPath(tree, path, decodeEtcdValue(kv.Value))
	}
	return tree, nil
}

func decodeEtcdValue(raw []byte) any {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil || v == nil {
		return string(raw)
	}
	return v
}

// setPath 在 tree 中按 path 写入 value，途经的非 map 值会被替换
func setPath(tree map[string]any, path []string, value any) {
	node := tree
	for _, key := range path[:len(path)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}

	leaf := path[len(path)-1]
	if m, ok := value.(map[string]any); ok {
		if existing, ok := node[leaf].(map[string]any); ok {
			mergeMaps(existing, m)
			return
		}
	}
	node[leaf] = value
}

// parseScalar 环境变量的值依次尝试整数、浮点数、布尔值
func parseScalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
