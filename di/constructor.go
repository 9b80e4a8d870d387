package di

import (
	"reflect"
)

// constructorInjector 驱动一次构造注入：
//
//	NOT_STARTED → IN_PROGRESS（无占位）→ [IN_PROGRESS_WITH_PROXY]
//	            → REFERENCE_SET → COMPLETE
//
// 构造函数阶段结束后立即登记真实引用，这样同一对象上的字段 / 方法
// 注入重入同一 id 时拿到的是真实对象而不是占位对象；
// 所有退出路径（包括错误）都会终结在途记录。
type constructorInjector struct {
	binding *binding
	invoker Invoker
	params  []Dependency
	members *membersInjector // 结构体构造时非 nil
}

func (ci *constructorInjector) get(cc *callContext, dep Dependency, e *errs) (any, error) {
	id := ci.binding.circularID

	early, err := cc.tryStartConstruction(id, dep, e)
	if err != nil {
		return nil, err
	}
	if early != nil {
		// 检测到循环：拿到占位对象或两阶段之间的真实引用，跳过构造
		return early, nil
	}

	completed := false
	var result any
	defer func() {
		cc.finishConstruction(id, result, completed)
	}()

	args, argsErr := ci.resolveArguments(cc, e)
	if argsErr != nil {
		return nil, argsErr
	}

	constructed, err := ci.invoker(args)
	if err != nil {
		return nil, err
	}
	result = constructed

	if ci.members != nil && result != nil {
		cc.setReference(id, result)
		memberErr := ci.members.inject(ci.binding.owner, cc, reflect.ValueOf(result), e)
		cc.clearReference(id)
		if memberErr != nil {
			return nil, memberErr
		}
	}

	completed = true
	return result, nil
}

// resolveArguments 解析全部构造参数。
// 单个参数失败不会中止枚举：尽可能多地收集问题后一次性失败，
// 让调用方得到完整的诊断。
func (ci *constructorInjector) resolveArguments(cc *callContext, e *errs) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(ci.params))
	failed := false
	for _, p := range ci.params {
		value, err := ci.binding.owner.provisionDependency(cc, p, e)
		if err != nil {
			failed = true
			continue
		}
		if value == nil {
			args = append(args, reflect.Zero(p.key.typ))
			continue
		}
		args = append(args, reflect.ValueOf(value))
	}
	if failed {
		return nil, errFailed
	}
	return args, nil
}

// funcParams 把函数签名的每个参数变成 Dependency。
func funcParams(fnType reflect.Type, consumer reflect.Type, member string) []Dependency {
	params := make([]Dependency, 0, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		params = append(params, paramDependency(KeyFor(fnType.In(i)), consumer, member, i))
	}
	return params
}
