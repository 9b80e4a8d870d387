package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() logging.Logger {
	builder := logging.NewLoggingBuilder()
	builder.AddConsole(logging.ConsoleLoggerOptions{
		Output:      os.Stdout,
		ColorOutput: false,
	})
	factory := builder.Build()
	return factory.CreateLogger("test")
}

// SimpleController 无依赖控制器
type SimpleController struct {
	Check string
}

func (c *SimpleController) MountRoutes(router gin.IRouter) {
	router.GET("/simple", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "simple")
	})
}

// DepService 模拟依赖服务
type DepService struct {
	Value string
}

// ControllerWithDep 带依赖的控制器 (构造函数注入)
type ControllerWithDep struct {
	Svc *DepService
}

func NewControllerWithDep(svc *DepService) *ControllerWithDep {
	return &ControllerWithDep{Svc: svc}
}

func (c *ControllerWithDep) MountRoutes(router gin.IRouter) {
	router.GET("/dep", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, c.Svc.Value)
	})
}

// ControllerWithTag 带 Tag 的控制器 (实例注入)
type ControllerWithTag struct {
	Svc *DepService `di:""`
}

func (c *ControllerWithTag) MountRoutes(router gin.IRouter) {
	router.GET("/tag", func(ctx *gin.Context) {
		// 如果 Svc 未注入，这里会 panic，测试框架会捕获
		ctx.String(http.StatusOK, "tag:"+c.Svc.Value)
	})
}

func TestWebBuilder_AddControllers(t *testing.T) {
	logger := newTestLogger()
	builder := NewBuilder().UseLogger(logger)

	// 方式 A: 构造函数
	builder.AddControllers(NewControllerWithDep)

	// 方式 B: 实例指针 (带 Tag)
	builder.AddControllers(&ControllerWithTag{})

	// 方式 C: 实例指针 (无依赖)
	builder.AddControllers(&SimpleController{})

	// 依赖服务与控制器绑定在同一个模块中声明
	injector, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*DepService](b, di.WithFactory(func() *DepService {
			return &DepService{Value: "injected-value"}
		}))
		assert.NoError(t, builder.RegisterServices(b))
	}))
	assert.NoError(t, err)

	host := builder.Build(injector)

	// Start 时才会挂载路由，这里直接触发以便用 httptest 验证
	err = host.mapControllers()
	assert.NoError(t, err)

	router := host.engine

	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/simple", nil)
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "simple", w1.Body.String())

	// 构造函数注入的依赖应生效
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/dep", nil)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "injected-value", w2.Body.String())

	// 字段注入 (di tag) 的依赖应生效
	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("GET", "/tag", nil)
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
	assert.Equal(t, "tag:injected-value", w3.Body.String())
}

func TestWebBuilder_DuplicateRegistration(t *testing.T) {
	logger := newTestLogger()
	builder := NewBuilder().UseLogger(logger)

	// 故意添加两次相同的控制器
	builder.AddControllers(NewControllerWithDep)
	builder.AddControllers(NewControllerWithDep)

	// 重复类型只注册一次，不报错
	injector, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*DepService](b, di.WithValue(&DepService{Value: "v"}))
		assert.NoError(t, builder.RegisterServices(b))
	}))
	assert.NoError(t, err)

	host := builder.Build(injector)
	assert.Len(t, host.controllerTypes, 1)
}
