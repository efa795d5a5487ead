// Package mvc 是控制器式 Web 应用的外壳：它持有注册表、gin 传输层、配置和日志，
// 把声明过的控制器编译为路由，并以托管服务的方式运行 Web 主机和定时任务。
package mvc

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/config"
	"github.com/gocrud/mvc/cron"
	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/hosting"
	"github.com/gocrud/mvc/logging"
	"github.com/gocrud/mvc/router"
	"github.com/gocrud/mvc/web"
)

// App 应用外壳
type App struct {
	registry      *annotation.Registry
	configuration config.Configuration
	settings      Settings
	logger        logging.Logger
	// loggerFactory 仅在日志由外壳创建时非空，Run 结束时关闭
	loggerFactory logging.LoggerFactory

	engine    *gin.Engine
	transport *web.Transport
	host      *web.Host
	compiler  *router.Compiler

	services []hosting.HostedService
	routes   []router.CompiledRoute
	errs     []error
}

// Option 配置 App
type Option func(*options)

type options struct {
	registry      *annotation.Registry
	logger        logging.Logger
	configuration config.Configuration
	engine        *gin.Engine
}

// WithRegistry 使用指定的注册表，默认为 annotation.Default()
func WithRegistry(registry *annotation.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithLogger 使用指定的日志记录器，默认按设置创建控制台日志
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfiguration 使用指定的配置，设置从其 "mvc" 节读取
func WithConfiguration(cfg config.Configuration) Option {
	return func(o *options) {
		o.configuration = cfg
	}
}

// WithEngine 使用已有的 gin 引擎，此时忽略 server.mode 设置
func WithEngine(engine *gin.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// New 创建应用。设置绑定失败等错误被记录下来，由 Err 和 Run 返回。
func New(opts ...Option) *App {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{registry: o.registry, configuration: o.configuration, logger: o.logger}
	if a.registry == nil {
		a.registry = annotation.Default()
	}
	if a.configuration == nil {
		cfg, err := config.NewConfigurationBuilder().Build()
		if err != nil {
			a.errs = append(a.errs, err)
		}
		a.configuration = cfg
	}

	settings, err := config.LoadOrDefault(a.configuration, SettingsSection, DefaultSettings())
	if err != nil {
		a.errs = append(a.errs, fmt.Errorf("mvc: failed to bind settings: %w", err))
	}
	a.settings = settings

	if a.logger == nil {
		a.logger = a.createLogger()
	}

	a.engine = o.engine
	if a.engine == nil {
		a.engine = web.NewEngine(settings.Server.Mode)
	}
	a.transport = web.NewTransport(a.engine,
		web.WithPrefix(settings.Server.Prefix),
		web.WithTransportLogger(a.logger.WithCategory("web")))
	a.host = web.NewHost(a.engine, settings.Server.Port, a.logger.WithCategory("web"))
	a.compiler = router.NewCompiler(a.registry, a.logger.WithCategory("router"))

	a.provide()
	return a
}

// createLogger 按日志设置创建控制台日志
func (a *App) createLogger() logging.Logger {
	factory, err := logging.NewConsoleFactory(a.settings.Logging.Level, a.settings.Logging.Format)
	if err != nil {
		a.errs = append(a.errs, err)
	}
	a.loggerFactory = factory
	return factory.CreateLogger("mvc")
}

// provide 把配置和日志注册到容器，已有注册时保留调用方的
func (a *App) provide() {
	c := a.registry.Container
	if !c.Has(di.TypeOf[config.Configuration]()) {
		cfg := a.configuration
		c.Register(di.TypeOf[config.Configuration](), func() config.Configuration { return cfg })
	}
	if !c.Has(di.TypeOf[logging.Logger]()) {
		logger := a.logger
		c.Register(di.TypeOf[logging.Logger](), func() logging.Logger { return logger })
	}
}

// RegisterControllers 编译控制器并注册到 gin 引擎。
// 错误被记录下来而不是返回，缺失元数据的控制器被跳过，其余路由仍然生效。
//
//	app := mvc.New().RegisterControllers(NewUserController, NewOrderController)
//	if err := app.Err(); err != nil { ... }
func (a *App) RegisterControllers(controllers ...any) *App {
	routes, err := a.compiler.Compile(a.transport, controllers...)
	a.routes = append(a.routes, routes...)
	if err != nil {
		a.errs = append(a.errs, err)
	}
	return a
}

// AddHostedService 添加与 Web 主机一同运行的托管服务
func (a *App) AddHostedService(service hosting.HostedService) *App {
	a.services = append(a.services, service)
	return a
}

// Cron 创建与应用共享注册表和日志的调度器，并作为托管服务运行
//
//	scheduler := app.Cron(func(o *cron.Options) { o.EnableSeconds = true })
//	scheduler.AddJob("cleanup", "0 */5 * * * *", NewCleanupJob, "Run")
func (a *App) Cron(opts ...func(*cron.Options)) *cron.Scheduler {
	scheduler, err := cron.NewScheduler(a.registry, a.logger.WithCategory("cron"), opts...)
	if err != nil {
		a.errs = append(a.errs, err)
		return nil
	}
	a.AddHostedService(scheduler)
	return scheduler
}

// Provider 基础设施构建器，database、redis、mongodb、etcd 的 Builder 都满足它
type Provider[F hosting.HostedService] interface {
	Register(c *di.Container, logger logging.Logger) (F, error)
}

// Use 把基础设施注册到应用容器，工厂作为托管服务运行，应用停止时关闭连接
//
//	mvc.Use[*database.Factory](app, database.NewBuilder().Add("default", sqlite.Open(dsn), nil))
func Use[F hosting.HostedService](a *App, provider Provider[F]) F {
	factory, err := provider.Register(a.registry.Container, a.logger)
	if err != nil {
		a.errs = append(a.errs, err)
		return factory
	}
	a.AddHostedService(factory)
	return factory
}

// Router 返回 gin 引擎
func (a *App) Router() *gin.Engine {
	return a.engine
}

// Routes 返回已注册的路由
func (a *App) Routes() []router.CompiledRoute {
	out := make([]router.CompiledRoute, len(a.routes))
	copy(out, a.routes)
	return out
}

// Err 返回创建和注册过程中记录的错误
func (a *App) Err() error {
	return errors.Join(a.errs...)
}

// Registry 返回应用的注册表
func (a *App) Registry() *annotation.Registry {
	return a.registry
}

// Container 返回应用的容器
func (a *App) Container() *di.Container {
	return a.registry.Container
}

// Configuration 返回应用的配置
func (a *App) Configuration() config.Configuration {
	return a.configuration
}

// Settings 返回绑定后的应用设置
func (a *App) Settings() Settings {
	return a.settings
}

// Logger 返回应用的日志记录器
func (a *App) Logger() logging.Logger {
	return a.logger
}

// Host 返回 Web 主机，Run 启动后可从它获得监听地址
func (a *App) Host() *web.Host {
	return a.host
}
