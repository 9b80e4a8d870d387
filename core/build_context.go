package core

import (
	"reflect"
	"sync"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// Configurator 扩展应用的配置器，在注入器构建期间执行。
type Configurator func(*BuildContext)

// BuildContext 配置器拿到的上下文。
// 配置阶段只能声明绑定、添加托管服务，不能解析服务；
// injector 字段要到构建完成后才被填入。
type BuildContext struct {
	binder        *di.Binder
	injector      di.Injector
	configuration config.Configuration
	logger        logging.Logger
	environment   Environment

	hostedServices []hosting.HostedService

	mu       sync.RWMutex
	cleanups map[string]func()
}

// AddHostedService 添加托管服务
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.hostedServices = append(c.hostedServices, service)
}

// SetCleanup 登记资源清理函数，应用关闭时执行。
// 同名 key 后写的覆盖先写的。
func (c *BuildContext) SetCleanup(key string, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups[key] = cleanup
}

// Binder 绑定收集器，用法：di.Provide[T](ctx.Binder(), ...)
func (c *BuildContext) Binder() *di.Binder {
	return c.binder
}

// Injector 构建完成的注入器，配置阶段为 nil。
func (c *BuildContext) Injector() di.Injector {
	return c.injector
}

// GetLogger 获取日志记录器
func (c *BuildContext) GetLogger() logging.Logger {
	return c.logger
}

// GetConfiguration 获取配置对象
func (c *BuildContext) GetConfiguration() config.Configuration {
	return c.configuration
}

// GetEnvironment 获取环境信息
func (c *BuildContext) GetEnvironment() Environment {
	return c.environment
}

// ConfigureOptions 把配置节 section 绑定为三种读取模式：
// Option[T] 启动时定格，OptionSnapshot[T] 每次解析取快照，
// OptionMonitor[T] 跟随配置热更新。
// 用法: core.ConfigureOptions[AppSetting](ctx, "app")
func ConfigureOptions[T any](ctx *BuildContext, section string) {
	cache := config.NewOptionsCache[T](ctx.configuration, section)

	di.Provide[config.Option[T]](ctx.binder,
		di.WithValue(config.NewOption(cache.Get())),
	)

	di.Provide[config.OptionMonitor[T]](ctx.binder,
		di.WithValue(config.NewOptionMonitor(cache)),
	)

	di.Provide[config.OptionSnapshot[T]](ctx.binder,
		di.WithFactory(func() config.OptionSnapshot[T] {
			return config.NewOptionSnapshot(cache.Snapshot())
		}),
		di.WithTransient(),
	)

	typeName := reflect.TypeOf((*T)(nil)).Elem().String()
	ctx.logger.Info("Configured options",
		logging.Field{Key: "type", Value: typeName},
		logging.Field{Key: "section", Value: section})
}
