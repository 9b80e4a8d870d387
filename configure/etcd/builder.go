package etcd

import (
	"github.com/gocrud/inject/core"
	cli "github.com/gocrud/inject/etcd"
	"github.com/gocrud/inject/logging"
)

// 客户端参数与工厂与顶层 etcd 包共用一套定义。
type (
	EtcdClientOptions = cli.EtcdClientOptions
	EtcdClientFactory = cli.EtcdClientFactory
)

// Builder 在 BuildContext 阶段收集 etcd 配置，构建逻辑委托给顶层包。
type Builder struct {
	core.BaseBuilder
	inner *cli.Builder
}

// NewBuilder 创建 Etcd 构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		inner:       cli.NewBuilder(),
	}
}

// AddClient 登记一个客户端配置
func (b *Builder) AddClient(name string, configure func(*EtcdClientOptions)) *Builder {
	b.inner.AddClient(name, configure)
	return b
}

// Build 构建 Etcd 客户端工厂
func (b *Builder) Build(logger logging.Logger) (*EtcdClientFactory, error) {
	return b.inner.Build(logger)
}
