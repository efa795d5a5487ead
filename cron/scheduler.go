package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/logging"
	"github.com/robfig/cron/v3"
)

// Options 调度器配置选项
type Options struct {
	// Location 时区名称，默认 UTC
	Location string
	// EnableSeconds 是否启用秒级精度（默认分钟级）
	EnableSeconds bool
	// EnableCronLogger 是否输出 cron 库的内部调度日志
	EnableCronLogger bool
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions() *Options {
	return &Options{Location: "UTC"}
}

// Scheduler 定时任务托管服务。
//
// 任务在声明时只记录定义，Start 时才通过注册表解析任务所属的类，
// 与控制器的解析方式一致。
type Scheduler struct {
	registry *annotation.Registry
	logger   logging.Logger
	cron     *cron.Cron
	parser   cron.Parser

	mu      sync.Mutex
	pending []*job
	entries map[string]cron.EntryID
	ready   chan struct{}
	// runCtx 传给任务的上下文，在 Stop 结束时取消
	runCtx context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建调度器，registry 为空时使用 annotation.Default()
func NewScheduler(registry *annotation.Registry, logger logging.Logger, opts ...func(*Options)) (*Scheduler, error) {
	if registry == nil {
		registry = annotation.Default()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	opt := NewDefaultOptions()
	for _, o := range opts {
		o(opt)
	}

	loc := time.UTC
	if opt.Location != "" {
		var err error
		if loc, err = time.LoadLocation(opt.Location); err != nil {
			return nil, fmt.Errorf("cron: invalid location %q: %w", opt.Location, err)
		}
	}

	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if opt.EnableSeconds {
		fields |= cron.Second
	}
	parser := cron.NewParser(fields)

	cronOpts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if opt.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}

	return &Scheduler{
		registry: registry,
		logger:   logger,
		cron:     cron.New(cronOpts...),
		parser:   parser,
		entries:  make(map[string]cron.EntryID),
		ready:    make(chan struct{}),
	}, nil
}

// Name 实现 hosting.Named
func (s *Scheduler) Name() string {
	return "cron"
}

// AddJob 声明一个由类的方法执行的任务。
// class 与控制器相同，可以是构造函数、结构体类型或结构体指针。
// 方法签名可以是 func()、func() error、func(context.Context) 或 func(context.Context) error。
//
//	scheduler.AddJob("cleanup", "0 */5 * * * *", NewCleanupJob, "Run")
func (s *Scheduler) AddJob(name, spec string, class any, method string) error {
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("cron: invalid spec %q for job '%s': %w", spec, name, err)
	}
	j, err := newMethodJob(name, spec, class, method)
	if err != nil {
		return err
	}
	return s.add(j)
}

// AddFunc 声明一个函数任务，函数参数按类型从容器中解析。
//
//	scheduler.AddFunc("sync", "@every 1m", func(ctx context.Context, svc *SyncService) error {
//		return svc.Sync(ctx)
//	})
func (s *Scheduler) AddFunc(name, spec string, fn any) error {
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("cron: invalid spec %q for job '%s': %w", spec, name, err)
	}
	j, err := newFuncJob(name, spec, fn)
	if err != nil {
		return err
	}
	return s.add(j)
}

func (s *Scheduler) add(j *job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[j.name]; exists {
		return fmt.Errorf("cron: job '%s' already scheduled", j.name)
	}
	for _, p := range s.pending {
		if p.name == j.name {
			return fmt.Errorf("cron: job '%s' already declared", j.name)
		}
	}

	if s.cancel == nil {
		s.pending = append(s.pending, j)
		return nil
	}
	// 已启动的调度器直接注册
	return s.schedule(j)
}

// Remove 移除任务
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.entries[name]; exists {
		s.cron.Remove(id)
		delete(s.entries, name)
		s.logger.Info(fmt.Sprintf("Cron job '%s' removed", name))
	}
}

// Jobs 返回已调度任务的名称及下次执行时间
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		jobs[name] = s.cron.Entry(id).Next
	}
	return jobs
}

// Ready 在所有任务注册完成、调度开始后关闭
func (s *Scheduler) Ready() <-chan struct{} {
	return s.ready
}

// Start 解析并注册所有声明的任务，然后阻塞直到 ctx 结束。
// 任一任务的类无法解析时不会启动调度。
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("cron: scheduler already started")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	for _, j := range s.pending {
		if err := s.schedule(j); err != nil {
			for _, id := range s.entries {
				s.cron.Remove(id)
			}
			s.entries = make(map[string]cron.EntryID)
			s.cancel = nil
			s.mu.Unlock()
			cancel()
			return err
		}
	}
	s.pending = nil
	s.logger.Info(fmt.Sprintf("Cron scheduler starting with %d jobs", len(s.entries)))

	s.runCtx = runCtx
	s.cron.Start()
	close(s.ready)
	s.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

// Stop 停止调度并等待正在执行的任务结束，或直到 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("Cron scheduler stopping")
	done := s.cron.Stop()
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// schedule 解析任务并交给 cron，调用方持有锁
func (s *Scheduler) schedule(j *job) error {
	run, err := j.resolve(s.registry)
	if err != nil {
		return fmt.Errorf("cron: failed to resolve job '%s': %w", j.name, err)
	}

	logger := s.logger.WithFields(logging.Field{Key: "job", Value: j.name})
	id, err := s.cron.AddFunc(j.spec, func() {
		start := time.Now()
		logger.Debug("Cron job started")
		if err := run(s.runCtx); err != nil {
			logger.Error("Cron job failed",
				logging.Field{Key: "error", Value: err.Error()},
				logging.Field{Key: "elapsed", Value: time.Since(start).String()})
			return
		}
		logger.Debug("Cron job completed", logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	})
	if err != nil {
		return fmt.Errorf("cron: failed to add job '%s': %w", j.name, err)
	}

	s.entries[j.name] = id
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", j.name, j.spec))
	return nil
}
