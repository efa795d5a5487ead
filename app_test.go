package mvc_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocrud/mvc"
	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/config"
	"github.com/gocrud/mvc/cron"
	"github.com/gocrud/mvc/database"
	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/logging"
	"github.com/gocrud/mvc/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type GreetingService struct {
	Salutation string
}

func NewGreetingService(cfg config.Configuration) *GreetingService {
	return &GreetingService{Salutation: cfg.GetWithDefault("greeting.salutation", "Hello")}
}

type GreetingController struct {
	Service *GreetingService
	Logger  logging.Logger
}

func NewGreetingController(svc *GreetingService, logger logging.Logger) *GreetingController {
	return &GreetingController{Service: svc, Logger: logger}
}

func (c *GreetingController) Greet(name string) string {
	return c.Service.Salutation + ", " + name
}

type UndeclaredController struct{}

func newConfig(t *testing.T, data map[string]any) config.Configuration {
	t.Helper()
	cfg, err := config.NewConfigurationBuilder().AddInMemory(data).Build()
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, extra map[string]any) (*mvc.App, *annotation.Registry) {
	t.Helper()

	registry := annotation.NewRegistry()
	registry.Service(NewGreetingService)
	registry.Controller(NewGreetingController, "/greetings").
		Get("/:name", "Greet", annotation.Param(0, "name"))

	data := map[string]any{
		"mvc": map[string]any{
			"server": map[string]any{
				"port":   0,
				"mode":   "test",
				"prefix": "/api",
			},
			"logging": map[string]any{"level": "error"},
		},
		"greeting": map[string]any{"salutation": "Hi"},
	}
	for k, v := range extra {
		data[k] = v
	}

	app := mvc.New(mvc.WithRegistry(registry), mvc.WithConfiguration(newConfig(t, data)))
	return app, registry
}

func TestAppRegistersControllers(t *testing.T) {
	app, _ := newApp(t, nil)
	app.RegisterControllers(NewGreetingController)
	require.NoError(t, app.Err())

	routes := app.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "GET /greetings/:name", string(routes[0].Method)+" "+routes[0].Path)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/greetings/bob", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi, bob", rec.Body.String())

	rec = httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/greetings/bob", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAppSettings(t *testing.T) {
	app, _ := newApp(t, nil)

	settings := app.Settings()
	assert.Equal(t, 0, settings.Server.Port)
	assert.Equal(t, "/api", settings.Server.Prefix)
	assert.Equal(t, "error", settings.Logging.Level)
	// 未配置的字段保留默认值
	assert.Equal(t, "text", settings.Logging.Format)
	assert.Equal(t, 5, settings.Server.ShutdownTimeout)

	// 日志和配置注册到了容器
	logger, err := di.Resolve[logging.Logger](app.Container())
	require.NoError(t, err)
	assert.Same(t, app.Logger(), logger)
	cfg, err := di.Resolve[config.Configuration](app.Container())
	require.NoError(t, err)
	assert.Equal(t, "Hi", cfg.Get("greeting.salutation"))
}

func TestAppDefaults(t *testing.T) {
	app := mvc.New(mvc.WithRegistry(annotation.NewRegistry()), mvc.WithLogger(logging.NewNopLogger()))
	require.NoError(t, app.Err())
	assert.Equal(t, mvc.DefaultSettings(), app.Settings())
	assert.Empty(t, app.Routes())
}

func TestAppRecordsErrors(t *testing.T) {
	app, _ := newApp(t, map[string]any{
		"mvc": map[string]any{
			"server":  map[string]any{"mode": "test"},
			"logging": map[string]any{"level": "loud"},
		},
	})
	assert.Error(t, app.Err())

	app, _ = newApp(t, nil)
	app.RegisterControllers(&UndeclaredController{}, NewGreetingController)

	err := app.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, router.ErrMissingControllerMetadata))
	// 其余控制器仍然注册
	assert.Len(t, app.Routes(), 1)

	assert.Error(t, app.Run(context.Background()))
}

type TickJob struct {
	ticks chan struct{}
}

func (j *TickJob) Run() {
	select {
	case j.ticks <- struct{}{}:
	default:
	}
}

type Note struct {
	gorm.Model
	Text string
}

func TestAppRun(t *testing.T) {
	app, registry := newApp(t, nil)
	app.RegisterControllers(NewGreetingController)

	job := &TickJob{ticks: make(chan struct{}, 1)}
	scheduler := app.Cron(func(o *cron.Options) { o.EnableSeconds = true })
	require.NotNil(t, scheduler)
	require.NoError(t, scheduler.AddJob("tick", "* * * * * *", job, "Run"))

	factory := mvc.Use[*database.Factory](app, database.NewBuilder().
		Add(database.DefaultName, sqlite.Open("file:app?mode=memory&cache=shared"), func(o *database.Options) {
			o.AutoMigrate = []any{&Note{}}
		}))
	require.NotNil(t, factory)
	require.NoError(t, app.Err())

	db, err := di.Resolve[*gorm.DB](registry.Container)
	require.NoError(t, err)
	require.NoError(t, db.Create(&Note{Text: "hello"}).Error)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-app.Host().Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("web host did not start")
	}

	_, port, err := net.SplitHostPort(app.Host().Address())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/api/greetings/alice")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Hi, alice", string(body))

	select {
	case <-job.ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}

	// 停止后数据库连接已关闭
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
