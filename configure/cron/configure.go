package cron

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/logging"
)

// Configure 宿主路径下启用定时任务，调度器作为托管服务随应用启停。
// 用法: builder.Configure(cron.Configure(func(b *cron.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		// 带依赖注入的任务要在触发时从容器解析参数
		scheduler, err := builder.build(ctx, ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build cron service",
				logging.Field{Key: "error", Value: err.Error()})
		}

		ctx.AddHostedService(scheduler)
		ctx.GetLogger().Info("Cron service configured")
	}
}
