package etcd

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// BuilderOption 配置 Etcd Builder
type BuilderOption func(*Builder)

// WithClient 声明一个命名客户端
func WithClient(name string, opts ...func(*EtcdClientOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*EtcdClientOptions)
		if len(opts) > 0 {
			configure = func(o *EtcdClientOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.AddClient(name, configure)
	}
}

// New 启用 Etcd 能力。
// 工厂与各命名客户端注册进容器，名为 default 的客户端同时作为无名绑定，
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
		if err := publishClients(rt, factory); err != nil {
			return fmt.Errorf("etcd: failed to register instance: %w", err)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			return factory.Close()
		})
		return nil
	}
}

func publishClients(rt *core.Runtime, factory *EtcdClientFactory) error {
	var firstErr error
	factory.Each(func(name string, client *clientv3.Client) {
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
