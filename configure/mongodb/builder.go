package mongodb

import (
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/logging"
	mdb "github.com/gocrud/inject/mongodb"
)

// 客户端参数与工厂与顶层 mongodb 包共用一套定义。
type (
	MongoOptions = mdb.MongoOptions
	MongoFactory = mdb.MongoFactory
)

// Builder 在 BuildContext 阶段收集 MongoDB 配置，构建逻辑委托给顶层包。
type Builder struct {
	core.BaseBuilder
	inner *mdb.Builder
}

// NewBuilder 创建构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		inner:       mdb.NewBuilder(),
	}
}

// Add 登记一个客户端配置
func (b *Builder) Add(name string, uri string, configure func(*MongoOptions)) *Builder {
	b.inner.Add(name, uri, configure)
	return b
}

// Build 构建 MongoDB 工厂
func (b *Builder) Build(logger logging.Logger) (*MongoFactory, error) {
	return b.inner.Build(logger)
}
