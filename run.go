package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/inject/core"
)

// Run 微内核入口：应用所有 Option、构建注入器、
// 启动生命周期，然后阻塞到退出信号或内部 Shutdown。
func Run(opts ...core.Option) error {
	rt := core.NewRuntime()

	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}

	if err := rt.Build(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Lifecycle.Start(ctx, rt.Injector); err != nil {
		return err
	}

	// 同时监听 OS 信号和运行时内部退出 (rt.Shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case <-rt.Done():
	}

	// 给停止钩子 5 秒清理时间
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	return rt.Lifecycle.Stop(shutdownCtx)
}
