package mongodb

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/mgo"
)

// BuilderOption 配置 MongoDB Builder
type BuilderOption func(*Builder)

// WithClient 声明一个命名客户端
func WithClient(name string, uri string, opts ...func(*MongoOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*MongoOptions)
		if len(opts) > 0 {
			configure = func(o *MongoOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.Add(name, uri, configure)
	}
}

// New 启用 MongoDB 能力。
// 工厂与各命名客户端注册进容器，名为 default 的客户端同时作为无名绑定，
// 应用停止时断开全部连接。
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
		if err := publishClients(rt, factory); err != nil {
			return fmt.Errorf("mongodb: failed to register instance: %w", err)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			return factory.Close()
		})
		return nil
	}
}

func publishClients(rt *core.Runtime, factory *MongoFactory) error {
	var firstErr error
	factory.Each(func(name string, client *mgo.Client) {
		if err := rt.Provide(client, di.WithName(name)); err != nil && firstErr == nil {
			firstErr = err
		}
		if name == "default" {
			if err := rt.Provide(client); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
