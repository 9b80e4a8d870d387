package core

import (
	"reflect"

	"github.com/gocrud/inject/di"
)

// implOptions 将 impl 转换为绑定选项
// impl 可以是实例，也可以是构造函数
func implOptions(impl any) []di.Option {
	if t := reflect.TypeOf(impl); t != nil && t.Kind() == reflect.Func {
		return []di.Option{di.WithFactory(impl)}
	}
	return []di.Option{di.WithValue(impl)}
}

// AddSingleton 将接口 T 绑定到实现 impl，并注册为单例
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddSingleton[IService](services, NewServiceImpl)
func AddSingleton[T any](s *ServiceCollection, impl any) {
	opts := append(implOptions(impl), di.WithSingleton())
	di.Provide[T](s.binder, opts...)
}

// AddTransient 将接口 T 绑定到实现 impl，并注册为瞬态服务
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddTransient[IWorker](services, NewWorker)
func AddTransient[T any](s *ServiceCollection, impl any) {
	opts := append(implOptions(impl), di.WithTransient())
	di.Provide[T](s.binder, opts...)
}

// AddScoped 将接口 T 绑定到实现 impl，并交给自定义作用域管理
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddScoped[IRequestScope](services, NewRequestScope, requestScope)
func AddScoped[T any](s *ServiceCollection, impl any, scope di.Scope) {
	opts := append(implOptions(impl), di.InScope(scope))
	di.Provide[T](s.binder, opts...)
}
