package web

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/logging"
)

// Configure 返回 Web 配置器
// 使用示例: builder.Configure(web.Configure(func(b *web.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx.GetLogger())
		if options != nil {
			options(builder)
		}

		// 构建 Web Host 并交给托管服务列表
		ctx.AddHostedService(builder.Build())

		ctx.GetLogger().Info("Web host configured",
			logging.Field{Key: "port", Value: builder.Port()})
	}
}
