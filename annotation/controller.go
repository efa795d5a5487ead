package annotation

import (
	"reflect"

	"github.com/gocrud/mvc/metadata"
)

// ControllerDecl 控制器声明，用于链式声明路由
type ControllerDecl struct {
	registry *Registry
	class    reflect.Type
}

// Type 返回控制器类型
func (d *ControllerDecl) Type() reflect.Type {
	return d.class
}

// Route 声明任意方法的路由
func (d *ControllerDecl) Route(method metadata.Method, path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	d.registry.Route(d.class, method, path, handler, params...)
	return d
}

// Get 声明 GET 路由
func (d *ControllerDecl) Get(path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	return d.Route(metadata.MethodGet, path, handler, params...)
}

// Post 声明 POST 路由
func (d *ControllerDecl) Post(path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	return d.Route(metadata.MethodPost, path, handler, params...)
}

// Put 声明 PUT 路由
func (d *ControllerDecl) Put(path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	return d.Route(metadata.MethodPut, path, handler, params...)
}

// Delete 声明 DELETE 路由
func (d *ControllerDecl) Delete(path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	return d.Route(metadata.MethodDelete, path, handler, params...)
}

// Patch 声明 PATCH 路由
func (d *ControllerDecl) Patch(path, handler string, params ...metadata.ParamMetadata) *ControllerDecl {
	return d.Route(metadata.MethodPatch, path, handler, params...)
}
