package hosting

import (
	"context"
	"errors"
	"sync"

	"github.com/gocrud/inject/logging"
)

// HostedService 托管服务。
// Start 应阻塞运行直到 ctx 取消或出错，框架负责在独立 goroutine 中调用，
// 用户不需要自己起 goroutine。Stop 做 Start 之外的额外清理，可以是空实现。
type HostedService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HostedServiceManager 统一启停一组托管服务。
type HostedServiceManager struct {
	mu       sync.RWMutex
	services []HostedService
	logger   logging.Logger
	wg       sync.WaitGroup
}

func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	return &HostedServiceManager{logger: logger}
}

// Add 登记一个托管服务
func (m *HostedServiceManager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// StartAll 并发启动全部服务，每个服务独占一个 goroutine。
// 返回的通道汇集各服务的启动失败，容量等于服务数，不会阻塞发送方。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info("Starting hosted services", logging.Field{Key: "count", Value: len(m.services)})

	for i, service := range m.services {
		m.wg.Add(1)
		go m.runService(ctx, i, service, errCh)
	}
	return errCh
}

// runService 驱动单个服务的 Start，并把真正的错误投递到 errCh。
// ctx 取消引起的退出不算错误。
func (m *HostedServiceManager) runService(ctx context.Context, index int, svc HostedService, errCh chan<- error) {
	defer m.wg.Done()

	err := svc.Start(ctx)
	switch {
	case err == nil:
		m.logger.Debug("Hosted service completed", logging.Field{Key: "index", Value: index})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.logger.Debug("Hosted service stopped", logging.Field{Key: "index", Value: index})
	default:
		m.logger.Error("Hosted service failed",
			logging.Field{Key: "index", Value: index},
			logging.Field{Key: "error", Value: err.Error()})
		errCh <- err
	}
}

// StopAll 并发停止全部服务并等待停止完成。
// 单个服务停止失败只记日志，不打断其余服务。
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("Stopping hosted services", logging.Field{Key: "count", Value: len(m.services)})

	var wg sync.WaitGroup
	for i, service := range m.services {
		wg.Add(1)
		go func(index int, svc HostedService) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error("Failed to stop hosted service",
					logging.Field{Key: "index", Value: index},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(i, service)
	}
	wg.Wait()

	m.logger.Info("All hosted services stopped")
	return nil
}

// Wait 等待全部 Start goroutine 退出
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}
