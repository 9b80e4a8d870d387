package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/logging"
	webhost "github.com/gocrud/inject/web"
)

// Host Web 主机，由顶层 web 包实现启停。
type Host = webhost.Host

// Builder 在 BuildContext 阶段组装 Web 主机，路由与引擎配置委托给顶层 web 包。
// 这条路径不走控制器解析，Build 不需要注入器。
type Builder struct {
	port  int
	inner *webhost.Builder
}

// NewBuilder 创建 Web 构建器
func NewBuilder(logger logging.Logger) *Builder {
	return &Builder{
		port:  8080,
		inner: webhost.NewBuilder().UseLogger(logger),
	}
}

// UsePort 设置监听端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	b.inner.UsePort(port)
	return b
}

// Port 返回当前配置的端口
func (b *Builder) Port() int {
	return b.port
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Get(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Post(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Put(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Delete(path, handlers...)
	return b
}

// Patch 注册 PATCH 路由
func (b *Builder) Patch(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Patch(path, handlers...)
	return b
}

// Any 注册任意方法路由
func (b *Builder) Any(path string, handlers ...gin.HandlerFunc) *Builder {
	b.inner.Any(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.inner.Group(relativePath, handlers...)
}

// Use 追加全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.inner.Use(middleware...)
	return b
}

// Static 服务静态目录
func (b *Builder) Static(relativePath, root string) *Builder {
	b.inner.Static(relativePath, root)
	return b
}

// StaticFS 服务静态文件系统
func (b *Builder) StaticFS(relativePath string, fs http.FileSystem) *Builder {
	b.inner.StaticFS(relativePath, fs)
	return b
}

// StaticFile 服务单个静态文件
func (b *Builder) StaticFile(relativePath, filepath string) *Builder {
	b.inner.StaticFile(relativePath, filepath)
	return b
}

// LoadHTMLGlob 按通配符加载 HTML 模板
func (b *Builder) LoadHTMLGlob(pattern string) *Builder {
	b.inner.LoadHTMLGlob(pattern)
	return b
}

// LoadHTMLFiles 按文件列表加载 HTML 模板
func (b *Builder) LoadHTMLFiles(files ...string) *Builder {
	b.inner.LoadHTMLFiles(files...)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.inner.NoRoute(handlers...)
	return b
}

// NoMethod 处理 405
func (b *Builder) NoMethod(handlers ...gin.HandlerFunc) *Builder {
	b.inner.NoMethod(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	b.inner.SetMode(mode)
	return b
}

// Engine 暴露底层 Gin 引擎，用于高级定制
func (b *Builder) Engine() *gin.Engine {
	return b.inner.Engine()
}

// Build 构建 Web 主机。没有注册控制器，不需要注入器。
func (b *Builder) Build() *Host {
	return b.inner.Build(nil)
}
