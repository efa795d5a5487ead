package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/router"
	"github.com/gocrud/mvc/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ItemController struct{}

func NewItemController() *ItemController { return &ItemController{} }

func (c *ItemController) Search(q string, tags []string) map[string]any {
	return map[string]any{"q": q, "tags": tags}
}

func (c *ItemController) Get(id int) Item {
	return Item{ID: id, Name: "item"}
}

func (c *ItemController) Create(item Item, ctx router.Context) (Item, error) {
	if item.Name == "" {
		return Item{}, errors.New("name required")
	}
	return item, nil
}

func (c *ItemController) Rename(id string, name string) string {
	return id + ":" + name
}

func (c *ItemController) Remove(id int) {}

func (c *ItemController) Raw(g *gin.Context) {
	g.String(http.StatusAccepted, "raw")
}

func setup(t *testing.T, opts ...web.TransportOption) *gin.Engine {
	t.Helper()

	registry := annotation.NewRegistry()
	registry.Controller(NewItemController, "/items").
		Get("/", "Search", annotation.Query(0, "q"), annotation.Query(1, "tag")).
		Get("/:id", "Get", annotation.Param(0, "id")).
		Post("/", "Create", annotation.Body(0), annotation.Ctx(1)).
		Patch("/:id", "Rename", annotation.Param(0, "id"), annotation.Body(1, "name")).
		Delete("/:id", "Remove", annotation.Param(0, "id")).
		Get("/raw/native", "Raw", annotation.Ctx(0))

	engine := web.NewEngine(gin.TestMode)
	transport := web.NewTransport(engine, opts...)
	_, err := router.NewCompiler(registry, nil).Compile(transport, NewItemController)
	require.NoError(t, err)
	return engine
}

func do(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestQueryBinding(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodGet, "/items?q=go&tag=a&tag=b", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "go", got["q"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
}

func TestPathAndBodyBinding(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodGet, "/items/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"item"}`, w.Body.String())

	w = do(engine, http.MethodPost, "/items", `{"id":1,"name":"pen"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"pen"}`, w.Body.String())

	w = do(engine, http.MethodPatch, "/items/3", `{"name":"cup"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3:cup", w.Body.String())
}

func TestEmptyResultAndNative(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodDelete, "/items/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(engine, http.MethodGet, "/items/raw/native", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "raw", w.Body.String())
}

func TestErrors(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodGet, "/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, http.MethodPost, "/items", `{"id":1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "name required")

	w = do(engine, http.MethodPost, "/items", `{bad`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodPut, "/items/3", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(engine, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrefixAndErrorHandler(t *testing.T) {
	var handled error
	engine := setup(t,
		web.WithPrefix("/api"),
		web.WithErrorHandler(func(c *gin.Context, err error) {
			handled = err
			c.AbortWithStatus(http.StatusTeapot)
		}))

	w := do(engine, http.MethodGet, "/api/items/7", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodGet, "/api/items/x", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, errors.Is(handled, router.ErrHandlerExecution))
}

type HomeController struct{}

func NewHomeController() *HomeController { return &HomeController{} }

func (c *HomeController) Index() string { return "home" }

func TestPrefixWithRootRoute(t *testing.T) {
	for _, prefix := range []string{"/api", "/api/"} {
		registry := annotation.NewRegistry()
		registry.Controller(NewHomeController, "").Get("/", "Index")

		engine := web.NewEngine(gin.TestMode)
		transport := web.NewTransport(engine, web.WithPrefix(prefix))
		_, err := router.NewCompiler(registry, nil).Compile(transport, NewHomeController)
		require.NoError(t, err)

		w := do(engine, http.MethodGet, "/api", "")
		assert.Equal(t, http.StatusOK, w.Code, prefix)
		assert.Equal(t, "home", w.Body.String())
	}

	registry := annotation.NewRegistry()
	registry.Controller(NewHomeController, "").Get("/", "Index")
	engine := web.NewEngine(gin.TestMode)
	_, err := router.NewCompiler(registry, nil).Compile(web.NewTransport(engine), NewHomeController)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/", "").Code)
}

func TestHostStartStop(t *testing.T) {
	engine := setup(t)
	host := web.NewHost(engine, 0, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- host.Start(context.Background())
	}()

	select {
	case <-host.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("host did not start")
	}

	_, port, err := net.SplitHostPort(host.Address())
	require.NoError(t, err)

	resp, err := http.Get("http://127.0.0.1:" + port + "/items/1")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, host.Stop(ctx))
	assert.NoError(t, <-errCh)
}
