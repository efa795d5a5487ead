package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/mvc/logging"
)

// HostedService 托管服务接口
// 框架会自动在 goroutine 中调用 Start，用户无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑。
	Stop(ctx context.Context) error
}

// Named 由希望在日志中显示名称的服务实现
type Named interface {
	Name() string
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{
		services: make([]HostedService, 0),
		logger:   logger,
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// Len 返回托管服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 并发启动所有托管服务，每个服务在独立的 goroutine 中运行。
// 返回的通道接收服务的非取消类错误，缓冲区等于服务数量。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(m.services)))

	for i, service := range m.services {
		name := serviceName(i, service)

		m.wg.Add(1)
		go func(svc HostedService) {
			defer m.wg.Done()

			m.logger.Debug("Starting hosted service", logging.Field{Key: "service", Value: name})
			err := svc.Start(ctx)
			switch {
			case err == nil:
				m.logger.Info("Hosted service completed", logging.Field{Key: "service", Value: name})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("Hosted service stopped (context done)", logging.Field{Key: "service", Value: name})
			default:
				m.logger.Error("Hosted service error",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}(service)
	}

	return errCh
}

// StopAll 反向并发停止所有托管服务，返回合并后的错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(m.services)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := len(m.services) - 1; i >= 0; i-- {
		name := serviceName(i, m.services[i])

		wg.Add(1)
		go func(svc HostedService) {
			defer wg.Done()

			if err := svc.Stop(ctx); err != nil {
				m.logger.Error("Failed to stop hosted service",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				return
			}
			m.logger.Debug("Hosted service stopped", logging.Field{Key: "service", Value: name})
		}(m.services[i])
	}
	wg.Wait()

	m.logger.Info("All hosted services stopped")
	return errors.Join(errs...)
}

// Wait 等待所有服务的 Start 返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}

func serviceName(index int, svc HostedService) string {
	if n, ok := svc.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T#%d", svc, index+1)
}
