package database

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"gorm.io/gorm"
)

// BuilderOption 配置 Database Builder
type BuilderOption func(*Builder)

// WithDatabase 声明一个命名数据库实例
func WithDatabase(name string, dialector gorm.Dialector, opts ...func(*DatabaseOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*DatabaseOptions)
		if len(opts) > 0 {
			configure = func(o *DatabaseOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.Add(name, dialector, configure)
	}
}

// New 启用数据库能力。
// 工厂与各命名实例注册进容器，名为 default 的实例同时作为无名绑定，
// 应用停止时关闭全部连接。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		factory, err := builder.Build(nil)
		if err != nil {
			return err
		}
		if factory == nil {
			return nil
		}

		if err := rt.Provide(factory); err != nil {
			return err
		}
		if err := publishInstances(rt, factory); err != nil {
			return fmt.Errorf("database: failed to register instance: %w", err)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			return factory.Close()
		})
		return nil
	}
}

func publishInstances(rt *core.Runtime, factory *DatabaseFactory) error {
	var firstErr error
	factory.Each(func(name string, db *gorm.DB) {
		if err := rt.Provide(db, di.WithName(name)); err != nil && firstErr == nil {
			firstErr = err
		}
		if name == "default" {
			if err := rt.Provide(db); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
