package database

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// Configure 宿主路径下启用数据库。
// 各命名连接进容器，"default" 连接额外挂无名绑定。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build databases",
				logging.Field{Key: "error", Value: err.Error()})
		}
		if factory == nil {
			return
		}

		di.Provide[*DatabaseFactory](ctx.Binder(), di.WithValue(factory))

		factory.Each(func(name string, db *gorm.DB) {
			di.Provide[*gorm.DB](ctx.Binder(), di.WithName(name), di.WithValue(db))
			ctx.GetLogger().Info("Database client registered to DI", logging.Field{Key: "name", Value: name})

			if name == "default" {
				di.Provide[*gorm.DB](ctx.Binder(), di.WithValue(db))
				ctx.GetLogger().Info("Default database registered to DI (unnamed)")
			}
		})

		ctx.SetCleanup("database", func() {
			ctx.GetLogger().Info("Closing database connections")
			if err := factory.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close databases",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
