package redis

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/redis/go-redis/v9"
)

// Configure 宿主路径下启用 Redis。
// 工厂与各命名客户端进容器，"default" 客户端额外挂无名绑定。
// 用法: builder.Configure(redis.Configure(func(b *redis.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build redis clients",
				logging.Field{Key: "error", Value: err.Error()})
		}
		if factory == nil {
			return
		}

		di.Provide[*RedisClientFactory](ctx.Binder(), di.WithValue(factory))

		factory.Each(func(name string, client *redis.Client) {
			di.Provide[*redis.Client](ctx.Binder(), di.WithName(name), di.WithValue(client))
		})

		if defaultClient, err := factory.Get("default"); err == nil {
			di.Provide[*redis.Client](ctx.Binder(), di.WithValue(defaultClient))
			ctx.GetLogger().Info("Default redis client registered to injector")
		}

		ctx.SetCleanup("redis", func() {
			ctx.GetLogger().Info("Closing redis clients")
			if err := factory.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close redis clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
