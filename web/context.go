package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gocrud/mvc/router"
)

var (
	_ router.Context = (*Context)(nil)
	_ router.Native  = (*Context)(nil)
)

// Context 把 *gin.Context 适配为 router.Context
type Context struct {
	gin *gin.Context

	body    any
	bodyErr error
	parsed  bool

	result any
	set    bool
}

func newContext(c *gin.Context) *Context {
	return &Context{gin: c}
}

// Gin 返回底层的 gin 上下文
func (c *Context) Gin() *gin.Context {
	return c.gin
}

// Native 返回底层的 *gin.Context
func (c *Context) Native() any {
	return c.gin
}

// Query 查询参数。单值为 string，多值为 []string
func (c *Context) Query() map[string]any {
	values := c.gin.Request.URL.Query()
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

// ParsedBody 按 Content-Type 解析请求体，结果会被缓存。
// JSON 解析为通用值，表单解析为与 Query 相同形式的映射，空请求体为 nil。
func (c *Context) ParsedBody() (any, error) {
	if c.parsed {
		return c.body, c.bodyErr
	}
	c.parsed = true
	c.body, c.bodyErr = c.parseBody()
	return c.body, c.bodyErr
}

func (c *Context) parseBody() (any, error) {
	req := c.gin.Request
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	switch c.gin.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		if err := req.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
			return nil, err
		}
		out := make(map[string]any, len(req.PostForm))
		for k, v := range req.PostForm {
			if len(v) == 1 {
				out[k] = v[0]
			} else {
				out[k] = v
			}
		}
		return out, nil
	}

	data, err := c.gin.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var body any
	if err := binding.JSON.BindBody(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// PathParams 路径参数
func (c *Context) PathParams() map[string]string {
	out := make(map[string]string, len(c.gin.Params))
	for _, p := range c.gin.Params {
		out[p.Key] = p.Value
	}
	return out
}

// SetBody 设置响应体，处理函数返回后写出
func (c *Context) SetBody(v any) {
	c.result = v
	c.set = true
}

// write 写出响应体：nil 为 204，string 为文本，[]byte 为二进制，其余为 JSON。
// 处理方法已经通过 *gin.Context 自行写出响应时不再写。
func (c *Context) write() {
	if !c.set || c.gin.Writer.Written() {
		return
	}

	switch v := c.result.(type) {
	case nil:
		c.gin.Status(http.StatusNoContent)
	case string:
		c.gin.String(http.StatusOK, v)
	case []byte:
		c.gin.Data(http.StatusOK, "application/octet-stream", v)
	default:
		c.gin.JSON(http.StatusOK, v)
	}
}
