package di

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// ProxyDelegate 是循环依赖占位对象背后的可变委托槽。
//
// 在构造完成之前，占位对象的任何方法调用通过 Resolve 读取委托都会 panic；
// 构造完成时引擎通过 set 发布真实对象，之后所有早先逃逸出去的占位对象
// 的行为与真实实例完全一致。发布使用 atomic.Value，保证其他 goroutine
// 之后调用占位对象方法时能看到最终委托。
type ProxyDelegate[T any] struct {
	val atomic.Value // 持有 proxyCell[T]
}

type proxyCell[T any] struct {
	value T
}

// Resolve 返回已发布的真实对象。
// 在构造仍未完成时调用会 panic，这与 "占位对象只应在构造完成后使用" 的
// 契约一致。
func (d *ProxyDelegate[T]) Resolve() T {
	cell, ok := d.val.Load().(proxyCell[T])
	if !ok {
		panic("di: this is a circular dependency proxy whose construction has not completed yet")
	}
	return cell.value
}

func (d *ProxyDelegate[T]) set(value T) {
	d.val.Store(proxyCell[T]{value: value})
}

// proxyConstructor 为某个接口类型构造占位对象。
// 返回 (占位对象, 完成时发布真实对象的回调)。
type proxyConstructor func() (proxy any, publish func(real any))

// RegisterCycleProxy 为接口 I 注册循环依赖占位对象的构造方式。
//
// Go 无法在运行时为任意接口生成动态代理，所以占位能力由调用方提供：
// build 收到一个延迟解析函数，返回一个把所有方法调用转发给
// resolve() 结果的 I 实现（一个薄转发 thunk）。
//
// 示例：
//
//	type engineProxy struct{ d func() Engine }
//	func (p engineProxy) Start() error { return p.d().Start() }
//
//	di.RegisterCycleProxy[Engine](binder, func(resolve func() Engine) Engine {
//		return engineProxy{d: resolve}
//	})
func RegisterCycleProxy[I any](binder *Binder, build func(resolve func() I) I) {
	typ := reflect.TypeOf((*I)(nil)).Elem()
	if typ.Kind() != reflect.Interface {
		binder.AddError(fmt.Errorf("di: RegisterCycleProxy requires an interface type, got %v", typ))
		return
	}
	binder.registerProxy(typ, func() (any, func(any)) {
		delegate := &ProxyDelegate[I]{}
		proxy := build(delegate.Resolve)
		return proxy, func(real any) {
			v, ok := real.(I)
			if !ok {
				// real 必然实现 I，断言失败意味着引擎内部错误
				panic(fmt.Sprintf("di: circular proxy delegate %T does not implement %v", real, typ))
			}
			delegate.set(v)
		}
	})
}
