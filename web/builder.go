package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// Builder 基于 Gin 的 Web 主机构建器。
// 路由与中间件直接落到引擎上，控制器先暂存，
// 声明进容器后由 Host 在启动时解析并挂载。
type Builder struct {
	logger          logging.Logger
	port            int
	engine          *gin.Engine
	controllerCtors []any // 控制器构造函数或实例
	registeredTypes []reflect.Type
}

// NewBuilder 创建 Web 构建器，默认发布模式，带 panic 恢复中间件。
func NewBuilder() *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Builder{
		port:   8080,
		engine: engine,
	}
}

// UseLogger 设置日志记录器
func (b *Builder) UseLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// UsePort 设置端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Controller 控制器契约，Host 启动时调用 MountRoutes 挂载路由。
type Controller interface {
	MountRoutes(router gin.IRouter)
}

// AddControllers 暂存控制器，Host 启动时经容器解析后挂载。
// 传构造函数 (如 NewUserController) 走构造注入；
// 传实例指针 (如 &UserController{}) 走字段注入 (di tag)。
func (b *Builder) AddControllers(controllers ...any) *Builder {
	b.controllerCtors = append(b.controllerCtors, controllers...)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Patch 注册 PATCH 路由
func (b *Builder) Patch(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PATCH(path, handlers...)
	return b
}

// Any 注册任意方法路由
func (b *Builder) Any(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.Any(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// Static 服务静态文件
func (b *Builder) Static(relativePath, root string) *Builder {
	b.engine.Static(relativePath, root)
	return b
}

// StaticFS 服务静态文件系统
func (b *Builder) StaticFS(relativePath string, fs http.FileSystem) *Builder {
	b.engine.StaticFS(relativePath, fs)
	return b
}

// StaticFile 服务单个静态文件
func (b *Builder) StaticFile(relativePath, filepath string) *Builder {
	b.engine.StaticFile(relativePath, filepath)
	return b
}

// LoadHTMLGlob 加载 HTML 模板（通配符）
func (b *Builder) LoadHTMLGlob(pattern string) *Builder {
	b.engine.LoadHTMLGlob(pattern)
	return b
}

// LoadHTMLFiles 加载 HTML 模板（文件列表）
func (b *Builder) LoadHTMLFiles(files ...string) *Builder {
	b.engine.LoadHTMLFiles(files...)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// NoMethod 处理 405
func (b *Builder) NoMethod(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoMethod(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	gin.SetMode(mode)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// RegisterServices 把暂存的控制器声明为容器绑定。
// 只能在模块配置阶段调用，注入器构建后声明无效。
func (b *Builder) RegisterServices(binder *di.Binder) error {
	seen := make(map[reflect.Type]bool, len(b.controllerCtors))
	for _, item := range b.controllerCtors {
		serviceType := inferServiceType(item)
		if serviceType == nil {
			if b.logger != nil {
				b.logger.Warn("web: cannot infer controller type, skipping",
					logging.Field{Key: "item", Value: fmt.Sprintf("%T", item)})
			}
			continue
		}

		// 重复注册同一控制器类型只生效一次
		if seen[serviceType] {
			if b.logger != nil {
				b.logger.Warn("web: controller already registered, skipping duplicate",
					logging.Field{Key: "type", Value: serviceType.String()})
			}
			continue
		}
		seen[serviceType] = true

		if reflect.ValueOf(item).Kind() == reflect.Func {
			// 构造函数注入
			binder.Bind(di.KeyFor(serviceType), di.WithFactory(item))
		} else {
			// 实例注册，保留字段注入 (di tag)
			binder.Bind(di.KeyFor(serviceType), di.WithValue(item), di.WithMembers())
		}

		b.registeredTypes = append(b.registeredTypes, serviceType)
	}
	return nil
}

// Build 构建 Web 主机。
// injector 用于启动时解析控制器，没有控制器时可以传 nil。
func (b *Builder) Build(injector di.Injector) *Host {
	return &Host{
		port:            b.port,
		engine:          b.engine,
		injector:        injector,
		controllerTypes: b.registeredTypes,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", b.port),
			Handler: b.engine,
		},
		logger: b.logger,
	}
}

// inferServiceType 推断控制器的服务类型，构造函数取首个返回值。
func inferServiceType(target any) reflect.Type {
	val := reflect.ValueOf(target)
	if val.Kind() == reflect.Func {
		if val.Type().NumOut() > 0 {
			return val.Type().Out(0)
		}
	} else if val.Kind() == reflect.Ptr {
		return val.Type()
	} else if t, ok := target.(reflect.Type); ok {
		return t
	}
	return nil
}

// Host Web 主机，作为托管服务由框架启停。
type Host struct {
	port            int
	engine          *gin.Engine
	server          *http.Server
	logger          logging.Logger
	injector        di.Injector
	controllerTypes []reflect.Type
}

// Address 实际监听地址 (如 "[::]:50234")，Start 之前为空。
func (h *Host) Address() string {
	if h.server != nil {
		return h.server.Addr
	}
	return ""
}

// Start 挂载控制器路由并开始服务，阻塞到 Shutdown 或出错。
// 先同步 Listen 再 Serve，端口被占用时立刻报错而不是后台静默失败。
func (h *Host) Start(ctx context.Context) error {
	if err := h.mapControllers(); err != nil {
		return fmt.Errorf("web: failed to map controllers: %w", err)
	}

	addr := fmt.Sprintf(":%d", h.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", addr, err)
	}
	h.server.Addr = ln.Addr().String()

	if h.logger != nil {
		h.logger.Info("Web host started",
			logging.Field{Key: "address", Value: h.server.Addr})
	}

	if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		if h.logger != nil {
			h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	}
	return nil
}

// Stop 优雅关闭，等待在途请求完成或 ctx 超时。
func (h *Host) Stop(ctx context.Context) error {
	if h.logger != nil {
		h.logger.Info("Stopping web host")
	}

	if err := h.server.Shutdown(ctx); err != nil {
		if h.logger != nil {
			h.logger.Error("Failed to shutdown web host gracefully",
				logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	}

	if h.logger != nil {
		h.logger.Info("Web host stopped")
	}
	return nil
}

// mapControllers 逐个从注入器解析控制器并挂载路由。
func (h *Host) mapControllers() error {
	for _, typ := range h.controllerTypes {
		instance, err := h.injector.GetInstance(di.KeyFor(typ))
		if err != nil {
			return fmt.Errorf("failed to resolve controller %v: %w", typ, err)
		}

		ctrl, ok := instance.(Controller)
		if !ok {
			return fmt.Errorf("instance %v does not implement web.Controller interface", typ)
		}

		ctrl.MountRoutes(h.engine)
		if h.logger != nil {
			h.logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: typ.String()})
		}
	}
	return nil
}
