package di

import (
	"fmt"
	"reflect"
	"strings"
)

// Provider 延迟获取类型 T 的实例。
//
// 任何已绑定的 Key(T) 都自动可以请求 Provider[T]：引擎会合成一个
// 委托绑定，调用时才真正 provisioning。
type Provider[T any] func() (T, error)

// MembersInjector 对已存在的 T（通常为 *Struct）执行字段与方法注入。
// 同 Provider 一样由引擎按需合成。
type MembersInjector[T any] func(target T) error

var (
	providerPkgPath = reflect.TypeOf(Provider[int](nil)).PkgPath()
	providerPrefix  = "Provider["
	membersPrefix   = "MembersInjector["
)

// providerElem 判断 typ 是否为 Provider[X]，是则返回 X。
func providerElem(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() != reflect.Func || typ.PkgPath() != providerPkgPath {
		return nil, false
	}
	if !strings.HasPrefix(typ.Name(), providerPrefix) {
		return nil, false
	}
	if typ.NumIn() != 0 || typ.NumOut() != 2 || typ.Out(1) != errType {
		return nil, false
	}
	return typ.Out(0), true
}

// membersInjectorElem 判断 typ 是否为 MembersInjector[X]，是则返回 X。
func membersInjectorElem(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() != reflect.Func || typ.PkgPath() != providerPkgPath {
		return nil, false
	}
	if !strings.HasPrefix(typ.Name(), membersPrefix) {
		return nil, false
	}
	if typ.NumIn() != 1 || typ.NumOut() != 1 || typ.Out(0) != errType {
		return nil, false
	}
	return typ.In(0), true
}

// newSyntheticProviderBinding 为 Key(Provider[X]) 合成绑定：
// provisioning 返回一个 Provider[X] 值，其每次调用都以独立上下文
// 解析元素 Key（限定名随 Key 传递）。
func (inj *injector) newSyntheticProviderBinding(key Key, elem reflect.Type) *binding {
	b := inj.newBinding(key, bindSyntheticProvider, jitSource(key))
	b.targetKey = NamedKeyFor(elem, key.name)
	return b
}

func (inj *injector) initSyntheticProviderBindingLocked(b *binding, e *errs) error {
	b.deps = []Dependency{newDependency(b.targetKey)}
	if err := inj.resolveDependenciesLocked(b, e); err != nil {
		return err
	}

	elemKey := b.targetKey
	providerType := b.key.typ
	b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
		fn := reflect.MakeFunc(providerType, func(args []reflect.Value) []reflect.Value {
			out := make([]reflect.Value, 2)
			v, err := inj.GetInstance(elemKey)
			if v == nil {
				out[0] = reflect.Zero(providerType.Out(0))
			} else {
				out[0] = reflect.ValueOf(v)
			}
			if err == nil {
				out[1] = reflect.Zero(errType)
			} else {
				out[1] = reflect.ValueOf(err)
			}
			return out
		})
		return fn.Interface(), nil
	}))
	b.initialized = true
	return nil
}

// newSyntheticMembersBinding 为 Key(MembersInjector[X]) 合成绑定。
func (inj *injector) newSyntheticMembersBinding(key Key, elem reflect.Type) *binding {
	b := inj.newBinding(key, bindSyntheticMembers, jitSource(key))
	b.targetKey = NamedKeyFor(elem, key.name)
	return b
}

func (inj *injector) initSyntheticMembersBindingLocked(b *binding, e *errs) error {
	elemType := b.targetKey.typ
	if _, err := inj.membersInjectorFor(elemType, e); err != nil {
		return err
	}

	injectorType := b.key.typ
	b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
		fn := reflect.MakeFunc(injectorType, func(args []reflect.Value) []reflect.Value {
			err := inj.InjectMembers(args[0].Interface())
			if err == nil {
				return []reflect.Value{reflect.Zero(errType)}
			}
			return []reflect.Value{reflect.ValueOf(err)}
		})
		return fn.Interface(), nil
	}))
	b.initialized = true
	return nil
}

// callProviderValue 调用一个被当作 Provider 绑定的函数值。
// 支持 func() (T, error) 与 func() T 两种形态。
func callProviderValue(providerVal any) (any, error) {
	if providerVal == nil {
		return nil, fmt.Errorf("provider value is nil")
	}
	rv := reflect.ValueOf(providerVal)
	if rv.Kind() != reflect.Func || rv.Type().NumIn() != 0 {
		return nil, fmt.Errorf("provider key must hold a no-argument function, got %T", providerVal)
	}
	results := rv.Call(nil)
	if len(results) == 0 {
		return nil, fmt.Errorf("provider function returned no values")
	}
	if len(results) > 1 {
		last := results[len(results)-1]
		if (last.Type() == errType || last.Type().Implements(errType)) && !last.IsNil() {
			return nil, userCodeError{cause: last.Interface().(error)}
		}
	}
	return results[0].Interface(), nil
}

// Get 从注入器解析类型 T 的实例（泛型辅助函数）。
func Get[T any](inj Injector) (T, error) {
	return GetNamed[T](inj, "")
}

// GetNamed 按类型和名称解析实例。
func GetNamed[T any](inj Injector, name string) (T, error) {
	var zero T
	v, err := inj.GetInstance(NamedKey[T](name))
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("di: resolved value is %T, expected %v", v, TypeOf[T]())
	}
	return typed, nil
}

// MustGet 同 Get，失败时 panic。
func MustGet[T any](inj Injector) T {
	v, err := Get[T](inj)
	if err != nil {
		panic(err)
	}
	return v
}

// ProviderOf 返回类型 T 的 Provider。
func ProviderOf[T any](inj Injector) Provider[T] {
	return NamedProviderOf[T](inj, "")
}

// NamedProviderOf 返回带名称的 Provider。
func NamedProviderOf[T any](inj Injector, name string) Provider[T] {
	key := NamedKey[T](name)
	return func() (T, error) {
		var zero T
		v, err := inj.GetInstance(key)
		if err != nil {
			return zero, err
		}
		if v == nil {
			return zero, nil
		}
		return v.(T), nil
	}
}
