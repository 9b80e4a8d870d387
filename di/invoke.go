package di

import (
	"fmt"
	"reflect"
)

// Invoke 解析 fn 的全部参数并调用它
// fn 的每个参数都通过注入器按类型解析，解析失败立即返回错误。
// 若 fn 的最后一个返回值是 error，则透传该错误。
func Invoke(inj Injector, fn any) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return fmt.Errorf("di: Invoke requires a function, got %T", fn)
	}

	t := v.Type()
	if t.IsVariadic() {
		return fmt.Errorf("di: Invoke does not support variadic functions: %s", t)
	}

	args := make([]reflect.Value, t.NumIn())
	for i := range args {
		instance, err := inj.GetInstance(KeyFor(t.In(i)))
		if err != nil {
			return fmt.Errorf("di: Invoke failed to resolve argument %d (%s): %w", i, t.In(i), err)
		}
		args[i] = reflect.ValueOf(instance)
	}

	results := v.Call(args)
	if n := len(results); n > 0 {
		if last := results[n-1]; last.Type() == errType && !last.IsNil() {
			return last.Interface().(error)
		}
	}
	return nil
}
