package cron

import (
	"context"

	"github.com/gocrud/inject/core"
)

// BuilderOption 配置 Cron Builder
type BuilderOption func(*Builder)

// WithSeconds 启用秒级精度
func WithSeconds() BuilderOption {
	return func(b *Builder) {
		b.WithSeconds()
	}
}

// WithLocation 设置时区
func WithLocation(location string) BuilderOption {
	return func(b *Builder) {
		b.WithLocation(location)
	}
}

// EnableCronLogger 输出 cron 库自身的调度日志
func EnableCronLogger() BuilderOption {
	return func(b *Builder) {
		b.EnableCronLogger()
	}
}

// AddJob 声明一个任务，handler 可以是 func() 或带注入参数的函数
func AddJob(spec, name string, handler any) BuilderOption {
	return func(b *Builder) {
		b.AddJobWithDI(spec, name, handler)
	}
}

// New 启用定时任务能力。
// 任务注册发生在应用启动阶段，此时注入器已构建完成；
// 调度器同时登记为特性，供其他 Option 在构建期取用。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		svc, err := builder.build(nil)
		if err != nil {
			return err
		}

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			svc.Inject(rt.Injector, nil)
			return svc.Start(ctx)
		})
		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			return svc.Stop(ctx)
		})

		rt.Features.Set(svc)
		return nil
	}
}
