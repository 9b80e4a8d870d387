package di

import (
	"fmt"
)

// internalFactory 是 provisioning 链的内部单元：
// 在给定的调用上下文中为一个依赖生产实例。
type internalFactory interface {
	get(cc *callContext, dep Dependency, e *errs) (any, error)
}

// internalFactoryFunc 便捷适配器。
type internalFactoryFunc func(cc *callContext, dep Dependency, e *errs) (any, error)

func (f internalFactoryFunc) get(cc *callContext, dep Dependency, e *errs) (any, error) {
	return f(cc, dep, e)
}

// ProvisionInvocation 交给 ProvisionListener 的一次 provisioning 调用。
//
// 监听器可以调用 Provision 提前触发构造并观察结果；
// 监听器返回后若未调用，引擎会自行调用。重复调用是错误。
type ProvisionInvocation struct {
	binding Binding
	dep     Dependency

	provisionFn func() (any, error)
	provisioned bool
	result      any
	err         error
}

// Binding 返回正在 provisioning 的绑定。
func (pi *ProvisionInvocation) Binding() Binding {
	return pi.binding
}

// Dependency 返回触发本次 provisioning 的依赖。
func (pi *ProvisionInvocation) Dependency() Dependency {
	return pi.dep
}

// Provision 执行实际构造，至多调用一次。
func (pi *ProvisionInvocation) Provision() (any, error) {
	if pi.provisioned {
		return nil, fmt.Errorf("di: Provision() may only be called once per invocation")
	}
	pi.provisioned = true
	pi.result, pi.err = pi.provisionFn()
	return pi.result, pi.err
}

// ProvisionListener 在每次原始构造前后得到通知。
// 多个监听器按注册顺序嵌套：前一个监听器的 Provision 调用驱动后一个。
// 监听器无法改变构造发生的次数。
type ProvisionListener interface {
	OnProvision(invocation *ProvisionInvocation)
}

// ProvisionListenerFunc 便捷适配器。
type ProvisionListenerFunc func(invocation *ProvisionInvocation)

func (f ProvisionListenerFunc) OnProvision(invocation *ProvisionInvocation) {
	f(invocation)
}

// provisionFactory 把原始工厂包装为完整的 provisioning 单元：
//
//  1. 监听器按注册顺序嵌套通知；
//  2. 用户代码错误被重新包装为带绑定来源的 provisioning 错误，
//     已经带有来源链的内部错误原样向上传递；
//  3. 结果做空值检查：非可选依赖收到 nil 时报错并指出绑定与消费方。
type provisionFactory struct {
	binding  *binding
	delegate internalFactory
}

func (f *provisionFactory) get(cc *callContext, dep Dependency, e *errs) (any, error) {
	listeners := f.binding.owner.state.provisionListeners()

	raw := func() (any, error) {
		return f.delegate.get(cc, dep, e)
	}

	var result any
	var err error
	if len(listeners) == 0 {
		result, err = raw()
	} else {
		result, err = runListenerChain(f.binding, dep, listeners, raw)
	}

	if err != nil {
		if err == errFailed {
			return nil, err
		}
		// 用户代码抛出的错误在这里获得绑定来源
		cause := err
		if u, ok := err.(userCodeError); ok {
			cause = u.cause
		}
		e.withDependency(dep).errorInUserCode(cause,
			"error provisioning %v bound at %s: %v", f.binding.key, f.binding.source, cause)
		return nil, errFailed
	}

	if isNilValue(result) {
		if dep.Optional() {
			return nil, nil
		}
		e.nullInjection(dep, f.binding.source)
		return nil, errFailed
	}
	return result, nil
}

// runListenerChain 递归驱动监听器链，innermost 的 Provision 执行原始构造。
func runListenerChain(b *binding, dep Dependency, listeners []ProvisionListener, raw func() (any, error)) (any, error) {
	var call func(i int) (any, error)
	call = func(i int) (any, error) {
		if i == len(listeners) {
			return raw()
		}
		inv := &ProvisionInvocation{
			binding: b,
			dep:     dep,
			provisionFn: func() (any, error) {
				return call(i + 1)
			},
		}
		listeners[i].OnProvision(inv)
		if !inv.provisioned {
			// 监听器没有触发构造，引擎补上，保证构造恰好发生一次
			return inv.Provision()
		}
		return inv.result, inv.err
	}
	return call(0)
}
