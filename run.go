package mvc

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gocrud/mvc/hosting"
	"github.com/gocrud/mvc/logging"
)

// Run 运行应用直到 ctx 被取消、收到 SIGINT/SIGTERM 或某个托管服务出错。
//
// 托管服务按添加顺序启动，Web 主机最后启动；停止时顺序相反，
// 在 server.shutdown_timeout 内完成优雅关闭。
func (a *App) Run(ctx context.Context) error {
	if err := a.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := hosting.NewHostedServiceManager(a.logger.WithCategory("hosting"))
	for _, service := range a.services {
		manager.Add(service)
	}
	manager.Add(a.host)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("Application starting", logging.Field{Key: "routes", Value: len(a.routes)})
	errCh := manager.StartAll(runCtx)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Application shutting down")
	case runErr = <-errCh:
		a.logger.Error("Hosted service failed, shutting down", logging.Field{Key: "error", Value: runErr.Error()})
	}
	cancel()

	// 关闭使用独立的上下文，父上下文此时已经结束
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.settings.Server.shutdownTimeout())
	defer shutdownCancel()

	stopErr := manager.StopAll(shutdownCtx)
	manager.Wait()
	a.logger.Info("Application stopped")

	var closeErr error
	if a.loggerFactory != nil {
		closeErr = a.loggerFactory.Close()
	}
	return errors.Join(runErr, stopErr, closeErr)
}
