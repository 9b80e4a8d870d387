package core

// BaseBuilder 各集成模块 Builder 的公共底座，嵌入后获得
// 对构建上下文的受限访问与清理登记能力。
type BaseBuilder struct {
	ctx *BuildContext
}

func NewBaseBuilder(ctx *BuildContext) BaseBuilder {
	return BaseBuilder{ctx: ctx}
}

// ConfigContext 以只读接口暴露构建上下文。
func (b *BaseBuilder) ConfigContext() ConfigurationContext {
	return b.ctx
}

// RegisterCleanup 登记应用关闭时执行的清理函数。
// 只有嵌入 BaseBuilder 的模块能登记，持有 ConfigurationContext 的一方不能。
func (b *BaseBuilder) RegisterCleanup(key string, cleanup func()) {
	b.ctx.SetCleanup(key, cleanup)
}
