package core

import (
	"context"
	"errors"

	"github.com/gocrud/inject/di"
)

// LifecycleEvents 按注册顺序启动、按倒序停止的钩子集合。
type LifecycleEvents struct {
	onStart []func(context.Context) error
	onStop  []func(context.Context) error
}

// NewLifecycle 创建生命周期管理器
func NewLifecycle() *LifecycleEvents {
	return &LifecycleEvents{}
}

// OnStart 注册启动钩子
func (l *LifecycleEvents) OnStart(fn func(context.Context) error) {
	l.onStart = append(l.onStart, fn)
}

// OnStop 注册停止钩子
func (l *LifecycleEvents) OnStop(fn func(context.Context) error) {
	l.onStop = append(l.onStop, fn)
}

// Start 顺序执行启动钩子，遇到错误立即返回。
func (l *LifecycleEvents) Start(ctx context.Context, inj di.Injector) error {
	for _, fn := range l.onStart {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop 倒序执行停止钩子。
// 单个钩子出错不会中断后续停止，错误汇总后一并返回。
func (l *LifecycleEvents) Stop(ctx context.Context) error {
	var errs []error
	for i := len(l.onStop) - 1; i >= 0; i-- {
		if err := l.onStop[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
