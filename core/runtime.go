package core

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/inject/di"
)

// Runtime 是框架的上帝对象，作为状态容器
// 启动分两个阶段：Option 阶段只声明绑定（累积 di.Module），
// Build 阶段一次性构建注入器，之后才能解析服务。
type Runtime struct {
	// Features 存放构建时特性 (WebBuilder, DbBuilder 等)
	Features FeatureCollection

	// Injector 核心注入器，Build 之前为 nil
	Injector di.Injector

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// modules 累积的绑定声明，Build 时一次性安装
	modules []di.Module

	// shutdownCh 用于通知应用退出
	shutdownCh chan struct{}

	// ErrorHandler 用于记录运行时产生的严重错误
	// 外部可以通过设置此字段来接管错误日志
	ErrorHandler func(err error)
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime() *Runtime {
	return &Runtime{
		Lifecycle:  NewLifecycle(),
		modules:    make([]di.Module, 0),
		shutdownCh: make(chan struct{}),
		ErrorHandler: func(err error) {
			// 默认输出到标准输出
			fmt.Printf("[Runtime Error] %v\n", err)
		},
	}
}

// Shutdown 请求应用退出
// 调用此方法会触发应用关闭流程
func (rt *Runtime) Shutdown() {
	select {
	case <-rt.shutdownCh:
		// 已经关闭，无需操作
	default:
		close(rt.shutdownCh)
	}
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// AddModule 追加一个绑定模块，Build 时安装
func (rt *Runtime) AddModule(m di.Module) {
	rt.modules = append(rt.modules, m)
}

// Configure 以函数形式追加绑定声明 (语法糖)
func (rt *Runtime) Configure(fn func(*di.Binder)) {
	rt.AddModule(di.ModuleFunc(fn))
}

// Provide 注册服务提供者 (语法糖)
// target 为构造函数时以第一个返回值作为服务类型，否则按值注册
func (rt *Runtime) Provide(target any, opts ...di.Option) error {
	serviceType, err := serviceTypeOf(target)
	if err != nil {
		return err
	}

	isFunc := reflect.TypeOf(target).Kind() == reflect.Func
	rt.Configure(func(b *di.Binder) {
		all := make([]di.Option, 0, len(opts)+1)
		if isFunc {
			all = append(all, di.WithFactory(target))
		} else {
			// 实例注册保留字段注入 (di tag)
			all = append(all, di.WithValue(target), di.WithMembers())
		}
		all = append(all, opts...)
		b.Bind(di.KeyFor(serviceType), all...)
	})
	return nil
}

// Build 安装所有累积的模块并构建注入器
func (rt *Runtime) Build() error {
	inj, err := di.New(rt.modules...)
	if err != nil {
		return err
	}
	rt.Injector = inj
	return nil
}

// Invoke 调用函数并注入依赖 (语法糖)
// 只能在 Build 之后调用
func (rt *Runtime) Invoke(function any) error {
	if rt.Injector == nil {
		return errors.New("core: Runtime.Invoke called before Build")
	}
	return di.Invoke(rt.Injector, function)
}

// Apply 应用多个 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// serviceTypeOf 推断 target 的服务类型
// 构造函数取第一个返回值类型，其他值取自身类型
func serviceTypeOf(target any) (reflect.Type, error) {
	t := reflect.TypeOf(target)
	if t == nil {
		return nil, errors.New("core: cannot provide an untyped nil")
	}
	if t.Kind() != reflect.Func {
		return t, nil
	}
	if t.NumOut() == 0 {
		return nil, fmt.Errorf("core: constructor %s must return at least one value", t)
	}
	return t.Out(0), nil
}
