package mongodb

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/gocrud/mgo"
)

// Configure 宿主路径下启用 MongoDB。
// 各命名客户端进容器，"default" 客户端额外挂无名绑定。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build mongodb clients",
				logging.Field{Key: "error", Value: err.Error()})
		}
		if factory == nil {
			return
		}

		di.Provide[*MongoFactory](ctx.Binder(), di.WithValue(factory))

		factory.Each(func(name string, client *mgo.Client) {
			di.Provide[*mgo.Client](ctx.Binder(), di.WithName(name), di.WithValue(client))
			ctx.GetLogger().Info("Mongo client registered to DI", logging.Field{Key: "name", Value: name})

			if name == "default" {
				di.Provide[*mgo.Client](ctx.Binder(), di.WithValue(client))
				ctx.GetLogger().Info("Default mongo client registered to DI (unnamed)")
			}
		})

		ctx.SetCleanup("mongodb", func() {
			ctx.GetLogger().Info("Closing mongo clients")
			if err := factory.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close mongo clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
