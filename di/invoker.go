package di

import (
	"fmt"
	"reflect"
)

// Invoker 封装一次原始调用：参数进、值出，或者一个需要再包装的错误。
//
// 引擎只依赖这个抽象，不关心可调用单元是反射调用还是生成的快速分发。
// 用户代码内的 panic 在这里被拦截并转换为错误，使每个失败都能带上
// 绑定的来源位置。
type Invoker func(args []reflect.Value) (any, error)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// userCodeError 标记从用户代码中冒出的错误（区别于引擎自身的配置错误）。
type userCodeError struct {
	cause error
}

func (u userCodeError) Error() string { return u.cause.Error() }
func (u userCodeError) Unwrap() error { return u.cause }

// newFuncInvoker 为构造函数 / 工厂函数创建调用器。
//
// 函数必须至少返回一个值；若最后一个返回值是 error 且非 nil，
// 则视为用户代码错误。
func newFuncInvoker(fn reflect.Value) Invoker {
	return func(args []reflect.Value) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = userCodeError{cause: fmt.Errorf("panic: %v", r)}
			}
		}()

		results := fn.Call(args)
		if len(results) == 0 {
			return nil, fmt.Errorf("constructor returned no values")
		}

		// 检查尾随 error
		if len(results) > 1 {
			last := results[len(results)-1]
			if last.Type() == errType || last.Type().Implements(errType) {
				if !last.IsNil() {
					return nil, userCodeError{cause: last.Interface().(error)}
				}
			}
		}

		return results[0].Interface(), nil
	}
}

// newStructInvoker 创建 "分配结构体并返回指针" 的调用器，
// 用于没有构造函数、按字段注入的类型。
func newStructInvoker(structType reflect.Type) Invoker {
	return func(args []reflect.Value) (any, error) {
		return reflect.New(structType).Interface(), nil
	}
}

// newMethodInvoker 为成员注入方法创建调用器（接收者作为第一个参数传入）。
func newMethodInvoker(method reflect.Value) Invoker {
	return func(args []reflect.Value) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = userCodeError{cause: fmt.Errorf("panic: %v", r)}
			}
		}()

		results := method.Call(args)
		// 注入方法允许返回 error，其他返回值忽略
		if len(results) > 0 {
			last := results[len(results)-1]
			if (last.Type() == errType || last.Type().Implements(errType)) && !last.IsNil() {
				return nil, userCodeError{cause: last.Interface().(error)}
			}
		}
		return nil, nil
	}
}

// isNilValue 报告一个已解析出的实例是否是对调用方而言的 nil。
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
