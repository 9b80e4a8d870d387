package database

import (
	"github.com/gocrud/inject/core"
	db "github.com/gocrud/inject/database"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// 实例参数与工厂与顶层 database 包共用一套定义。
type (
	DatabaseOptions = db.DatabaseOptions
	DatabaseFactory = db.DatabaseFactory
)

// Builder 在 BuildContext 阶段收集数据库配置，构建逻辑委托给顶层包。
type Builder struct {
	core.BaseBuilder
	inner *db.Builder
}

// NewBuilder 创建构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		inner:       db.NewBuilder(),
	}
}

// Add 登记一个数据库配置
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*DatabaseOptions)) *Builder {
	b.inner.Add(name, dialector, configure)
	return b
}

// Build 构建数据库工厂
func (b *Builder) Build(logger logging.Logger) (*DatabaseFactory, error) {
	return b.inner.Build(logger)
}
