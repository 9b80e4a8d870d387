package etcd

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Configure 宿主路径下启用 etcd。
// 各命名客户端进容器，"default" 客户端额外挂无名绑定。
// 用法: builder.Configure(etcd.Configure(func(b *etcd.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build etcd clients",
				logging.Field{Key: "error", Value: err.Error()})
		}
		if factory == nil {
			return
		}

		di.Provide[*EtcdClientFactory](ctx.Binder(), di.WithValue(factory))

		factory.Each(func(name string, client *clientv3.Client) {
			di.Provide[*clientv3.Client](ctx.Binder(), di.WithName(name), di.WithValue(client))
		})

		if defaultClient, err := factory.Get("default"); err == nil {
			di.Provide[*clientv3.Client](ctx.Binder(), di.WithValue(defaultClient))
			ctx.GetLogger().Info("Default etcd client registered to injector")
		}

		ctx.SetCleanup("etcd", func() {
			ctx.GetLogger().Info("Closing etcd clients")
			if err := factory.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close etcd clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
