package metadata_test

import (
	"reflect"
	"testing"

	"github.com/gocrud/mvc/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userController struct{}
type orderController struct{}

var (
	userType  = reflect.TypeOf(&userController{})
	orderType = reflect.TypeOf(&orderController{})
)

func TestRouteAccumulation(t *testing.T) {
	s := metadata.NewStore()

	// 方法注解先于类注解执行
	s.AddRoute(userType, metadata.RouteMetadata{Path: "/:id", Method: metadata.MethodGet, HandlerName: "Get"})
	s.MergeController(userType, "/users")
	s.AddRoute(userType, metadata.RouteMetadata{Path: "/", Method: metadata.MethodGet, HandlerName: "List"})
	s.MergeController(userType, "/users")

	meta, ok := s.Controller(userType)
	require.True(t, ok)
	assert.Equal(t, "/users", meta.Prefix)
	require.Len(t, meta.Routes, 2)
	assert.Equal(t, "Get", meta.Routes[0].HandlerName)
	assert.Equal(t, "List", meta.Routes[1].HandlerName)
	assert.Equal(t, "", meta.Routes[1].Path)
}

func TestAddRouteCreatesEmptyPrefix(t *testing.T) {
	s := metadata.NewStore()
	s.AddRoute(orderType, metadata.RouteMetadata{Path: "/orders", Method: metadata.MethodPost, HandlerName: "Create"})

	meta, ok := s.Controller(orderType)
	require.True(t, ok)
	assert.Equal(t, "", meta.Prefix)
	assert.Len(t, meta.Routes, 1)
}

func TestControllerReturnsCopy(t *testing.T) {
	s := metadata.NewStore()
	s.MergeController(userType, "/users")
	s.AddRoute(userType, metadata.RouteMetadata{Path: "/a", Method: metadata.MethodGet, HandlerName: "A"})

	meta, _ := s.Controller(userType)
	meta.Routes[0].Path = "/changed"

	again, _ := s.Controller(userType)
	assert.Equal(t, "/a", again.Routes[0].Path)
}

func TestControllersOrder(t *testing.T) {
	s := metadata.NewStore()
	s.MergeController(orderType, "/orders")
	s.MergeController(userType, "/users")
	s.MergeController(orderType, "/v2/orders")

	assert.Equal(t, []reflect.Type{orderType, userType}, s.Controllers())

	_, ok := s.Controller(reflect.TypeOf(0))
	assert.False(t, ok)
}

func TestParamsDeclarationOrder(t *testing.T) {
	s := metadata.NewStore()
	s.AddParam(userType, "Update", metadata.ParamMetadata{Index: 2, Type: metadata.ParamCtx})
	s.AddParam(userType, "Update", metadata.ParamMetadata{Index: 0, Type: metadata.ParamPath, Key: "id"})
	s.AddParam(userType, "Update", metadata.ParamMetadata{Index: 1, Type: metadata.ParamBody})

	params := s.Params(userType, "Update")
	require.Len(t, params, 3)
	assert.Equal(t, 2, params[0].Index)
	assert.Equal(t, "id", params[1].Key)
	assert.Empty(t, s.Params(userType, "Missing"))
}

func TestService(t *testing.T) {
	s := metadata.NewStore()
	s.SetService(userType, metadata.ServiceMetadata{Scope: metadata.ScopeTransient})

	meta, ok := s.Service(userType)
	require.True(t, ok)
	assert.Equal(t, metadata.ScopeTransient, meta.Scope)

	_, ok = s.Service(orderType)
	assert.False(t, ok)
}

func TestParseMethod(t *testing.T) {
	m, ok := metadata.ParseMethod("patch")
	assert.True(t, ok)
	assert.Equal(t, metadata.MethodPatch, m)

	_, ok = metadata.ParseMethod("TRACE")
	assert.False(t, ok)
}
