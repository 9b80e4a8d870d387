package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// application Application 的默认实现。
type application struct {
	injector        di.Injector
	configuration   *config.ReloadableConfiguration
	configBuilder   *config.ConfigurationBuilder
	logger          logging.Logger
	environment     Environment
	hostedServices  []hosting.HostedService
	serviceManager  *hosting.HostedServiceManager
	cleanups        map[string]func()
	shutdownTimeout time.Duration
	stopCh          chan struct{}
	running         bool
	runCtx          context.Context
	runCancel       context.CancelFunc
	mu              sync.RWMutex
}

// Run 运行应用，阻塞到退出
func (a *application) Run() error {
	return a.RunAsync(context.Background())
}

// RunAsync 运行应用，ctx 取消时开始优雅退出。
func (a *application) RunAsync(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("application is already running")
	}
	a.running = true
	a.runCtx, a.runCancel = context.WithCancel(ctx)
	a.mu.Unlock()

	a.logger.Info("Starting application",
		logging.Field{Key: "environment", Value: a.environment.Name()})

	a.startConfigWatches()

	a.serviceManager = hosting.NewHostedServiceManager(a.logger)
	for _, service := range a.hostedServices {
		a.serviceManager.Add(service)
	}
	errCh := a.serviceManager.StartAll(a.runCtx)

	a.logger.Info("Application started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info("Received shutdown signal",
			logging.Field{Key: "signal", Value: sig.String()})
	case <-a.stopCh:
		a.logger.Info("Application stop requested")
	case <-ctx.Done():
		a.logger.Info("Context cancelled")
	case err := <-errCh:
		a.logger.Error("Hosted service failed, stopping application",
			logging.Field{Key: "error", Value: err.Error()})
		runErr = err
	}

	a.shutdown()

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return runErr
}

// startConfigWatches 为支持监听的配置源启动变更监听，变更触发配置重载。
func (a *application) startConfigWatches() {
	for _, source := range a.configBuilder.GetSources() {
		src := source
		err := src.StartWatch(a.runCtx, func() {
			if err := a.configuration.Reload(); err != nil {
				a.logger.Error("Failed to reload configuration",
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			a.logger.Info("Configuration reloaded successfully")
		})
		if err != nil {
			a.logger.Warn("Failed to start config watch",
				logging.Field{Key: "source", Value: src.Name()},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// shutdown 停止托管服务、配置监听与登记的清理函数。
func (a *application) shutdown() {
	a.logger.Info("Shutting down application",
		logging.Field{Key: "timeout", Value: a.shutdownTimeout.String()})

	// 先取消运行 context，通知所有服务停止
	a.runCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.serviceManager.StopAll(shutdownCtx); err != nil {
		a.logger.Error("Failed to stop hosted services",
			logging.Field{Key: "error", Value: err.Error()})
	}
	a.serviceManager.Wait()

	for _, source := range a.configBuilder.GetSources() {
		source.StopWatch()
	}

	for key, cleanup := range a.cleanups {
		a.logger.Debug("Running cleanup", logging.Field{Key: "key", Value: key})
		cleanup()
	}

	a.logger.Info("Application stopped")
}

// Stop 请求应用退出
func (a *application) Stop(ctx context.Context) error {
	close(a.stopCh)
	return nil
}

func (a *application) Services() di.Injector {
	return a.injector
}

func (a *application) Configuration() config.Configuration {
	return a.configuration
}

func (a *application) Logger() logging.Logger {
	return a.logger
}

func (a *application) Environment() Environment {
	return a.environment
}

// GetService 把服务实例写入 ptr 指向的变量。
//
// 使用示例：
//
//	var myService *MyService
//	app.GetService(&myService)
func (a *application) GetService(ptr any) {
	ptrValue := reflect.ValueOf(ptr)
	if ptrValue.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("app: GetService argument must be a pointer, got %T", ptr))
	}

	elemValue := ptrValue.Elem()
	if !elemValue.CanSet() {
		panic("app: GetService argument must be settable")
	}

	targetType := elemValue.Type()
	instance, err := a.injector.GetInstance(di.KeyFor(targetType))
	if err != nil {
		panic(fmt.Sprintf("app: failed to get service %s: %v", targetType.String(), err))
	}
	elemValue.Set(reflect.ValueOf(instance))
}
