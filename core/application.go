package core

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// Application 构建完成的应用。
// Run 阻塞到收到退出信号，RunAsync 额外接受外部 context 控制生命周期。
type Application interface {
	Run() error
	RunAsync(ctx context.Context) error
	Stop(ctx context.Context) error
	Services() di.Injector
	Configuration() config.Configuration
	Logger() logging.Logger
	Environment() Environment
	GetService(ptr any)
}

// ApplicationBuilder 应用构建器。
// 配置、日志、服务声明都先累积，Build 时一次性构建注入器。
type ApplicationBuilder struct {
	mu                   sync.RWMutex
	environment          string
	configBuilder        *config.ConfigurationBuilder
	loggingBuilder       *logging.LoggingBuilder
	serviceConfigurators []func(*ServiceCollection)
	configurators        []Configurator
	shutdownTimeout      time.Duration
}

// NewApplicationBuilder 创建应用构建器
func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{
		environment:     "development",
		configBuilder:   config.NewConfigurationBuilder(),
		loggingBuilder:  logging.NewLoggingBuilder(),
		shutdownTimeout: 30 * time.Second,
	}
}

// UseEnvironment 设置运行环境名
func (b *ApplicationBuilder) UseEnvironment(env string) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.environment = env
	return b
}

// UseShutdownTimeout 设置优雅退出的等待上限
func (b *ApplicationBuilder) UseShutdownTimeout(timeout time.Duration) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdownTimeout = timeout
	return b
}

// ConfigureConfiguration 定制配置源
func (b *ApplicationBuilder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 定制日志输出
func (b *ApplicationBuilder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
	}
	return b
}

// ConfigureServices 登记服务声明回调，Build 时执行
func (b *ApplicationBuilder) ConfigureServices(configure func(*ServiceCollection)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		b.serviceConfigurators = append(b.serviceConfigurators, configure)
	}
	return b
}

// Configure 登记配置器，接受 func(*BuildContext) 形式的函数。
func (b *ApplicationBuilder) Configure(configurators ...interface{}) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range configurators {
		fn, ok := c.(func(*BuildContext))
		if !ok {
			panic(fmt.Sprintf("configurator must be func(*BuildContext), got %T", c))
		}
		b.configurators = append(b.configurators, fn)
	}
	return b
}

// AddExtension 挂载应用扩展，按其实现的接口分发到对应阶段。
func (b *ApplicationBuilder) AddExtension(ext Extension) *ApplicationBuilder {
	validateExtension(ext)

	b.mu.Lock()
	defer b.mu.Unlock()

	if sc, ok := ext.(ServiceConfigurator); ok {
		b.serviceConfigurators = append(b.serviceConfigurators, sc.ConfigureServices)
	}
	if ac, ok := ext.(AppConfigurator); ok {
		b.configurators = append(b.configurators, ac.ConfigureBuilder)
	}
	return b
}

// AddOptions 注册强类型配置选项的语法糖。
// 使用示例: core.AddOptions[AppSetting](builder, "app")
func AddOptions[T any](b *ApplicationBuilder, section string) *ApplicationBuilder {
	return b.Configure(func(ctx *BuildContext) {
		ConfigureOptions[T](ctx, section)
	})
}

// AddTask 把一个函数挂成后台任务
func (b *ApplicationBuilder) AddTask(task func(ctx context.Context) error) *ApplicationBuilder {
	b.Configure(func(ctx *BuildContext) {
		ctx.AddHostedService(&functionalService{task: task})
	})
	return b
}

// functionalService 函数式托管服务
type functionalService struct {
	task func(ctx context.Context) error
}

func (f *functionalService) Start(ctx context.Context) error {
	return f.task(ctx)
}

func (f *functionalService) Stop(ctx context.Context) error {
	return nil
}

// Build 构建应用。
// 配置器在注入器安装阶段执行，只能声明绑定；
// 注入器就绪后再解析通过 DI 注册的托管服务。
func (b *ApplicationBuilder) Build() Application {
	b.mu.Lock()
	defer b.mu.Unlock()

	reloadableConfig, err := b.configBuilder.BuildReloadable()
	if err != nil {
		panic(fmt.Sprintf("Failed to build configuration: %v", err))
	}

	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("Application")
	logger.Info("Building application",
		logging.Field{Key: "environment", Value: b.environment})

	services := &ServiceCollection{logger: logger}
	buildContext := &BuildContext{
		configuration: reloadableConfig,
		logger:        logger,
		environment:   NewEnvironment(b.environment),
		cleanups:      make(map[string]func()),
	}

	rootModule := di.ModuleFunc(func(binder *di.Binder) {
		buildContext.binder = binder
		services.binder = binder

		// 框架自身的服务先注册，配置接口链接到可重载实现
		di.Provide[*config.ReloadableConfiguration](binder, di.WithValue(reloadableConfig))
		di.Provide[config.Configuration](binder, di.LinkTo[*config.ReloadableConfiguration]())
		di.Provide[logging.LoggerFactory](binder, di.WithValue(loggerFactory))
		di.Provide[logging.Logger](binder, di.WithValue(logger))

		for _, configurator := range b.configurators {
			configurator(buildContext)
		}
		for _, configurator := range b.serviceConfigurators {
			configurator(services)
		}
	})

	injector, err := di.New(rootModule)
	if err != nil {
		logger.Fatal("Failed to build injector",
			logging.Field{Key: "error", Value: err.Error()})
	}
	buildContext.injector = injector
	logger.Info("Injector built successfully")

	return &application{
		injector:        injector,
		configuration:   reloadableConfig,
		configBuilder:   b.configBuilder,
		logger:          logger,
		environment:     NewEnvironment(b.environment),
		hostedServices:  collectHostedServices(buildContext, services, injector, logger),
		cleanups:        buildContext.cleanups,
		shutdownTimeout: b.shutdownTimeout,
		stopCh:          make(chan struct{}),
	}
}

// collectHostedServices 汇总两类托管服务：
// BuildContext 上直接添加的实例，和 ServiceCollection 里登记、需从注入器解析的类型。
func collectHostedServices(ctx *BuildContext, services *ServiceCollection, injector di.Injector, logger logging.Logger) []hosting.HostedService {
	all := append([]hosting.HostedService(nil), ctx.hostedServices...)

	for _, serviceType := range services.hostedServiceTypes {
		instance, err := injector.GetInstance(di.KeyFor(serviceType))
		if err != nil {
			logger.Fatal("Failed to retrieve hosted service from injector",
				logging.Field{Key: "error", Value: err.Error()},
				logging.Field{Key: "type", Value: serviceType.String()})
		}
		hs, ok := instance.(hosting.HostedService)
		if !ok {
			logger.Fatal("Service does not implement HostedService interface",
				logging.Field{Key: "type", Value: serviceType.String()})
		}
		all = append(all, hs)
	}
	return all
}

// ServiceCollection 通过 DI 声明服务的入口。
type ServiceCollection struct {
	binder             *di.Binder
	logger             logging.Logger
	hostedServiceTypes []reflect.Type
}

// AddHostedService 登记托管服务，接受实例或构造函数。
// 构造函数注册为绑定，返回类型在注入器构建后解析；
// 不要对同一类型同时使用 AddHostedService 和其他注册方式。
func (s *ServiceCollection) AddHostedService(value any) {
	serviceType, err := serviceTypeOf(value)
	if err != nil {
		s.logger.Warn("Invalid hosted service registration",
			logging.Field{Key: "error", Value: err.Error()})
		return
	}

	if reflect.TypeOf(value).Kind() == reflect.Func {
		s.binder.Bind(di.KeyFor(serviceType), di.WithFactory(value))
	} else {
		s.binder.Bind(di.KeyFor(serviceType), di.WithValue(value))
	}
	s.hostedServiceTypes = append(s.hostedServiceTypes, serviceType)
}
