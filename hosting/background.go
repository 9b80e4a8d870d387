package hosting

import (
	"context"
	"sync"
	"time"

	"github.com/gocrud/inject/logging"
)

// BackgroundService 长驻后台服务的可嵌入底座。
// 自带停止信号与完成通知，实现方在自己的循环里监听 StopChan。
type BackgroundService struct {
	name     string
	logger   logging.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	doneOnce sync.Once
}

func NewBackgroundService(name string, logger logging.Logger) *BackgroundService {
	return &BackgroundService{
		name:   name,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start 阻塞直到收到停止信号或 ctx 取消。
// 嵌入方覆盖此方法实现自己的循环时，退出前要调用 Done。
func (s *BackgroundService) Start(ctx context.Context) error {
	s.logger.Info("Background service running", logging.Field{Key: "name", Value: s.name})

	select {
	case <-s.stopCh:
	case <-ctx.Done():
	}

	s.Done()
	return nil
}

// Stop 发出停止信号并等待服务退出，超时以 ctx 为准。
func (s *BackgroundService) Stop(ctx context.Context) error {
	close(s.stopCh)

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Background service stop timeout", logging.Field{Key: "name", Value: s.name})
		return ctx.Err()
	}
}

// ShouldStop 非阻塞地检查停止信号
func (s *BackgroundService) ShouldStop() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// StopChan 返回停止通道，供实现方在 select 中监听
func (s *BackgroundService) StopChan() <-chan struct{} {
	return s.stopCh
}

// Done 标记服务已退出，可安全地多次调用
func (s *BackgroundService) Done() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// TimedHostedService 按固定间隔执行任务的托管服务。
// 任务失败只记日志，下个周期照常触发。
type TimedHostedService struct {
	*BackgroundService
	interval time.Duration
	task     func(ctx context.Context) error
}

func NewTimedHostedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedHostedService {
	return &TimedHostedService{
		BackgroundService: NewBackgroundService(name, logger),
		interval:          interval,
		task:              task,
	}
}

// Start 启动定时循环
func (s *TimedHostedService) Start(ctx context.Context) error {
	defer s.Done()

	s.logger.Info("Timed service running",
		logging.Field{Key: "name", Value: s.name},
		logging.Field{Key: "interval", Value: s.interval.String()})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("Timed service task failed",
					logging.Field{Key: "name", Value: s.name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		case <-s.StopChan():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
