package web

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
)

// BuilderOption 配置 Web Builder。
type BuilderOption func(*Builder)

// WithPort 设置监听端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) {
		b.UsePort(port)
	}
}

// WithControllers 添加控制器
func WithControllers(controllers ...any) BuilderOption {
	return func(b *Builder) {
		b.AddControllers(controllers...)
	}
}

// New 启用 Web 能力：暴露 Builder 为 Feature，
// 在模块配置阶段声明控制器绑定，并把 Host 挂成托管服务。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		rt.Features.Set(builder)

		// 控制器绑定只能在模块配置阶段声明
		rt.Configure(func(b *di.Binder) {
			if err := builder.RegisterServices(b); err != nil {
				b.AddError(err)
			}
		})

		// 工厂接收注入器参数，保证 Host 在注入器构建后才创建。
		// 创建出的 Host 同时登记为 Feature，方便测试拿到监听地址。
		hostFactory := func(inj di.Injector) *Host {
			host := builder.Build(inj)
			rt.Features.Set(host)
			return host
		}
		return core.WithHostedService(hostFactory)(rt)
	}
}
