package metadata

import (
	"reflect"
	"sync"
)

// Store 按类保存声明期产生的元数据。
//
// 写入只发生在声明阶段，之后只读；RWMutex 保证声明与编译交错时的安全。
type Store struct {
	mu          sync.RWMutex
	services    map[reflect.Type]ServiceMetadata
	controllers map[reflect.Type]*ControllerMetadata
	params      map[handlerKey][]ParamMetadata

	// order 控制器首次声明的顺序
	order []reflect.Type
}

type handlerKey struct {
	class   reflect.Type
	handler string
}

// NewStore 创建空的元数据存储
func NewStore() *Store {
	return &Store{
		services:    make(map[reflect.Type]ServiceMetadata),
		controllers: make(map[reflect.Type]*ControllerMetadata),
		params:      make(map[handlerKey][]ParamMetadata),
	}
}

// SetService 记录服务元数据
func (s *Store) SetService(class reflect.Type, meta ServiceMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[class] = meta
}

// Service 返回服务元数据
func (s *Store) Service(class reflect.Type) (ServiceMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.services[class]
	return meta, ok
}

// MergeController 设置控制器前缀，保留已经累积的路由
func (s *Store) MergeController(class reflect.Type, prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller(class).Prefix = prefix
}

// AddRoute 追加一条路由，控制器元数据不存在时以空前缀创建
func (s *Store) AddRoute(class reflect.Type, route RouteMetadata) {
	route.Path = NormalizePath(route.Path)

	s.mu.Lock()
	defer s.mu.Unlock()
	meta := s.controller(class)
	meta.Routes = append(meta.Routes, route)
}

// controller 调用方需持有写锁
func (s *Store) controller(class reflect.Type) *ControllerMetadata {
	meta, ok := s.controllers[class]
	if !ok {
		meta = &ControllerMetadata{Routes: []RouteMetadata{}}
		s.controllers[class] = meta
		s.order = append(s.order, class)
	}
	return meta
}

// Controller 返回控制器元数据的副本，调用方可以随意排序
func (s *Store) Controller(class reflect.Type) (ControllerMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.controllers[class]
	if !ok {
		return ControllerMetadata{}, false
	}
	routes := make([]RouteMetadata, len(meta.Routes))
	copy(routes, meta.Routes)
	return ControllerMetadata{Prefix: meta.Prefix, Routes: routes}, true
}

// Controllers 返回所有声明过的控制器类型，按首次声明排序
func (s *Store) Controllers() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reflect.Type, len(s.order))
	copy(out, s.order)
	return out
}

// AddParam 追加处理方法的一条参数绑定
func (s *Store) AddParam(class reflect.Type, handler string, param ParamMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := handlerKey{class: class, handler: handler}
	s.params[key] = append(s.params[key], param)
}

// Params 返回处理方法的参数绑定，按声明顺序
func (s *Store) Params(class reflect.Type, handler string) []ParamMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	params := s.params[handlerKey{class: class, handler: handler}]
	out := make([]ParamMetadata, len(params))
	copy(out, params)
	return out
}
