package app

import "github.com/gocrud/inject/core"

// NewApplicationBuilder 宿主路径的入口，创建应用程序构建器。
func NewApplicationBuilder() *core.ApplicationBuilder {
	return core.NewApplicationBuilder()
}
