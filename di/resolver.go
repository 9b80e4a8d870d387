package di

import (
	"reflect"
)

// resolveBinding 为 Key 定位或合成绑定。
//
// 算法（对应一次 getBinding / getInstance 的解析阶段）：
//
//  1. 沿层链查显式绑定，命中即终止；
//  2. 否则进入即时（JIT）路径：持树级锁，查各层 JIT 缓存、
//     先递归询问父层（根先优先，吞掉父层错误）、检查黑名单，
//     最后在本层合成新绑定。
func (inj *injector) resolveBinding(key Key, e *errs) (*binding, error) {
	if b := inj.state.explicitBinding(key); b != nil {
		return b, nil
	}

	inj.state.lock()
	defer inj.state.unlock()
	return inj.jitBindingLocked(key, e)
}

// resolveBindingLocked 同 resolveBinding，但调用方已持有树级锁
// （嵌套 JIT 创建期间的依赖解析走这里）。
func (inj *injector) resolveBindingLocked(key Key, e *errs) (*binding, error) {
	if b := inj.state.explicitBinding(key); b != nil {
		return b, nil
	}
	return inj.jitBindingLocked(key, e)
}

// jitBindingLocked 即时路径。调用方必须持有树级锁。
func (inj *injector) jitBindingLocked(key Key, e *errs) (*binding, error) {
	// 各层 JIT 缓存（自身向根）
	for layer := inj.state; layer != nil; layer = layer.parent {
		if b, ok := layer.jitBindingLocal(key); ok {
			// 显式绑定模式下命中缓存的 JIT 绑定仍然是错误，
			// 除非绑定来自常量转换等豁免来源
			if inj.options.RequireExplicitBindings && !jitExempt(b) {
				e.jitDisabled(key)
				return nil, errFailed
			}
			return b, nil
		}
	}

	// 根先优先：父层能解析就用父层的，父层的失败被吞掉
	if inj.parent != nil {
		parentErrs := newErrs()
		if b, err := inj.parent.jitBindingLocked(key, parentErrs); err == nil {
			return b, nil
		}
	}

	return inj.createJustInTimeBindingLocked(key, e)
}

// jitExempt 报告绑定是否豁免于 "必须显式绑定" 策略。
func jitExempt(b *binding) bool {
	switch b.kind {
	case bindConstant, bindSyntheticProvider, bindSyntheticMembers:
		return true
	}
	return false
}

// createJustInTimeBindingLocked 在本层合成一个新的 JIT 绑定。
// 合成顺序：黑名单 → Provider[T]/MembersInjector[T] 合成绑定 →
// 字符串常量转换 → 显式绑定策略 → 限定名不回退 → 实现提示 →
// 默认构造注入规则。
func (inj *injector) createJustInTimeBindingLocked(key Key, e *errs) (*binding, error) {
	if sources, banned := inj.state.blacklistedAt(key); banned {
		e.childBindingAlreadySet(key, sources)
		return nil, errFailed
	}

	// Provider[X] / MembersInjector[X]：合成委托绑定
	if elem, ok := providerElem(key.typ); ok {
		return inj.publishJitBindingLocked(inj.newSyntheticProviderBinding(key, elem), e)
	}
	if elem, ok := membersInjectorElem(key.typ); ok {
		return inj.publishJitBindingLocked(inj.newSyntheticMembersBinding(key, elem), e)
	}

	// 字符串常量转换：同名的字符串绑定 + 匹配的转换器
	if b, err, tried := inj.convertConstantLocked(key, e); tried {
		if err != nil {
			return nil, err
		}
		return inj.publishJitBindingLocked(b, e)
	}

	if inj.options.RequireExplicitBindings {
		e.jitDisabled(key)
		return nil, errFailed
	}

	// 限定名 Key 从不回退到未限定绑定
	if key.name != "" {
		if inj.state.explicitBinding(key.unqualified()) != nil {
			e.missingImplementationWithHint(key)
		} else {
			e.missingImplementation(key)
		}
		return nil, errFailed
	}

	// 实现提示（ImplementedBy / ProvidedBy 的等价物）
	if hint, ok := inj.state.hintFor(key.typ); ok {
		if hint.implType != nil {
			if hint.implType == key.typ {
				e.recursiveBinding(key)
				return nil, errFailed
			}
			b := inj.newBinding(key, bindLinked, jitSource(key))
			b.targetKey = KeyFor(hint.implType)
			return inj.publishJitBindingLocked(b, e)
		}
		if !hint.providerKey.isZero() {
			if hint.providerKey == key {
				e.recursiveBinding(key)
				return nil, errFailed
			}
			b := inj.newBinding(key, bindProviderKey, jitSource(key))
			b.targetKey = hint.providerKey
			return inj.publishJitBindingLocked(b, e)
		}
	}

	// 默认构造注入规则
	if !constructable(key.typ) {
		e.notConstructable(key.typ)
		return nil, errFailed
	}
	b := inj.newBinding(key, bindConstructor, jitSource(key))
	b.implType = key.typ
	return inj.publishJitBindingLocked(b, e)
}

// constructable 报告类型能否走默认构造注入。
// 接口（无提示时）、标量、切片、map、chan、数组、函数都不行。
func constructable(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Struct {
		return true
	}
	return typ.Kind() == reflect.Struct
}

// convertConstantLocked 尝试常量转换。
// tried 为 true 表示此路径适用（存在同名字符串绑定且有匹配的转换器）。
func (inj *injector) convertConstantLocked(key Key, e *errs) (b *binding, err error, tried bool) {
	if key.typ == stringType {
		return nil, nil, false
	}
	strBinding := inj.state.explicitBinding(NamedKeyFor(stringType, key.name))
	if strBinding == nil || strBinding.kind != bindInstance {
		return nil, nil, false
	}
	converter := inj.state.converterFor(key.typ)
	if converter == nil {
		return nil, nil, false
	}

	value := strBinding.instance.(string)
	converted, convErr := convertConstant(converter, value, key.typ)
	if convErr != nil {
		e.conversionFailed(key, value, convErr)
		return nil, errFailed, true
	}

	cb := inj.newBinding(key, bindConstant, strBinding.source)
	cb.constValue = converted
	cb.constSource = value
	return cb, nil, true
}

var stringType = reflect.TypeOf("")

// publishJitBindingLocked 先把绑定放进 JIT 缓存再初始化，
// 类级别的自引用图（A 需要 B，B 需要 A）在初始化期间就能解析到自己。
// 初始化失败时回滚：移除该绑定以及它连带创建的、如今已无效的依赖绑定，
// 不让半成品留在缓存里。成功后把 Key 记入父层黑名单。
func (inj *injector) publishJitBindingLocked(b *binding, e *errs) (*binding, error) {
	b.jit = true
	inj.state.putJitBinding(b.key, b)

	if err := inj.initializeBindingLocked(b, e); err != nil {
		inj.cleanupFailedBindingLocked(b, map[*binding]bool{})
		return nil, errFailed
	}

	if inj.state.parent != nil {
		inj.state.parent.addBlacklist(b.key, b.source)
	}
	return b, nil
}

// cleanupFailedBindingLocked 移除失败的 JIT 绑定，并递归移除它声明的
// 依赖中尚未初始化完成的 JIT 绑定（已初始化的依赖绑定是有效的，保留）。
func (inj *injector) cleanupFailedBindingLocked(b *binding, seen map[*binding]bool) {
	if seen[b] {
		return
	}
	seen[b] = true
	inj.state.removeJitBinding(b.key)

	for _, dep := range b.deps {
		for layer := inj.state; layer != nil; layer = layer.parent {
			if db, ok := layer.jitBindingLocal(dep.key); ok {
				if !db.initialized {
					inj.cleanupFailedBindingLocked(db, seen)
				}
				break
			}
		}
	}
}

// initializeBindingLocked 解析绑定的依赖并装配 provisioning 链。
// 枚举依赖时不在第一个错误处停下：尽可能收集完整诊断后才失败。
func (inj *injector) initializeBindingLocked(b *binding, e *errs) error {
	switch b.kind {
	case bindInstance:
		return inj.initInstanceBindingLocked(b, e)
	case bindConstructor:
		return inj.initConstructorBindingLocked(b, e)
	case bindProvider:
		return inj.initProviderBindingLocked(b, e)
	case bindLinked:
		return inj.initLinkedBindingLocked(b, e)
	case bindProviderKey:
		return inj.initProviderKeyBindingLocked(b, e)
	case bindConstant:
		b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
			return b.constValue, nil
		}))
		b.initialized = true
		return nil
	case bindSyntheticProvider:
		return inj.initSyntheticProviderBindingLocked(b, e)
	case bindSyntheticMembers:
		return inj.initSyntheticMembersBindingLocked(b, e)
	}
	e.addKind(ErrOther, "unknown binding kind for %v", b.key)
	return errFailed
}

func (inj *injector) initInstanceBindingLocked(b *binding, e *errs) error {
	if b.injectMembers {
		m, err := inj.membersInjectorFor(reflect.TypeOf(b.instance), e)
		if err != nil {
			return err
		}
		b.deps = m.dependencies()
		if err := inj.resolveDependenciesLocked(b, e); err != nil {
			return err
		}
		target := b.instance
		b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
			// 值绑定的成员注入只执行一次
			b.memberOnce.Do(func() {
				b.memberErr = m.inject(inj, cc, reflect.ValueOf(target), e)
			})
			if b.memberErr != nil {
				return nil, b.memberErr
			}
			return target, nil
		}))
	} else {
		b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
			return b.instance, nil
		}))
	}
	b.initialized = true
	return nil
}

func (inj *injector) initConstructorBindingLocked(b *binding, e *errs) error {
	typ := b.implType
	var invoker Invoker
	var members *membersInjector
	var params []Dependency

	switch {
	case typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Struct:
		m, err := inj.membersInjectorFor(typ, e)
		if err != nil {
			return err
		}
		members = m
		invoker = newStructInvoker(typ.Elem())
		b.deps = m.dependencies()
	case typ.Kind() == reflect.Struct:
		// 值类型结构体：构造 *T 注入后解引用
		ptr := reflect.PointerTo(typ)
		m, err := inj.membersInjectorFor(ptr, e)
		if err != nil {
			return err
		}
		members = m
		base := newStructInvoker(typ)
		invoker = func(args []reflect.Value) (any, error) {
			return base(args)
		}
		b.deps = m.dependencies()
	default:
		e.notConstructable(typ)
		return errFailed
	}

	if err := inj.resolveDependenciesLocked(b, e); err != nil {
		return err
	}

	b.circularID = inj.state.nextCircularID()
	b.ctor = &constructorInjector{binding: b, invoker: invoker, params: params, members: members}

	if typ.Kind() == reflect.Struct {
		// 解引用包装：成员注入作用在 *T 上，向调用方交出 T
		inner := b.ctor
		b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
			v, err := inner.get(cc, dep, e)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(v).Elem().Interface(), nil
		}))
	} else {
		b.buildFactoryChain(b.ctor)
	}
	b.initialized = true
	return nil
}

func (inj *injector) initProviderBindingLocked(b *binding, e *errs) error {
	fnType := b.providerFn.Type()
	if fnType.IsVariadic() {
		e.addKind(ErrInvalidInjectionPoint, "constructor for %v must not be variadic", b.key)
		return errFailed
	}
	params := funcParams(fnType, b.key.typ, "constructor")
	b.deps = params
	if err := inj.resolveDependenciesLocked(b, e); err != nil {
		return err
	}

	b.circularID = inj.state.nextCircularID()
	b.ctor = &constructorInjector{
		binding: b,
		invoker: newFuncInvoker(b.providerFn),
		params:  params,
	}
	b.buildFactoryChain(b.ctor)
	b.initialized = true
	return nil
}

func (inj *injector) initLinkedBindingLocked(b *binding, e *errs) error {
	if b.targetKey == b.key {
		e.recursiveBinding(b.key)
		return errFailed
	}
	b.deps = []Dependency{newDependency(b.targetKey)}
	if err := inj.resolveDependenciesLocked(b, e); err != nil {
		return err
	}
	target := b.targetKey
	b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
		// 委托给目标 Key 的绑定，但原始依赖原样传递：
		// 循环检测要以注入点声明的类型（通常是接口）决定能否代理
		sink := e.withDependency(dep)
		if dep.Optional() {
			// 可选依赖的解析失败进独立收集器，不污染在用的诊断
			sink = newErrs().withDependency(dep)
		}
		tb, err := inj.resolveBinding(target, sink)
		if err != nil {
			if dep.Optional() {
				return nil, nil
			}
			return nil, errFailed
		}
		return tb.factory.get(cc, dep, e)
	}))
	b.initialized = true
	return nil
}

func (inj *injector) initProviderKeyBindingLocked(b *binding, e *errs) error {
	if b.targetKey == b.key {
		e.recursiveBinding(b.key)
		return errFailed
	}
	b.deps = []Dependency{newDependency(b.targetKey)}
	if err := inj.resolveDependenciesLocked(b, e); err != nil {
		return err
	}
	target := b.targetKey
	b.buildFactoryChain(internalFactoryFunc(func(cc *callContext, dep Dependency, e *errs) (any, error) {
		providerVal, err := inj.provisionDependency(cc, newDependency(target), e)
		if err != nil {
			return nil, err
		}
		return callProviderValue(providerVal)
	}))
	b.initialized = true
	return nil
}

// resolveDependenciesLocked 解析绑定声明的全部依赖（触发嵌套 JIT 创建）。
// 可选依赖解析失败不算错误；其余依赖的问题全部收集后一次性失败。
func (inj *injector) resolveDependenciesLocked(b *binding, e *errs) error {
	failed := false
	for _, dep := range b.deps {
		depErrs := e.withDependency(dep)
		if dep.Optional() {
			// 缺失时注入零值，单独的收集器吞掉错误
			scratch := newErrs()
			inj.resolveBindingLocked(dep.key, scratch)
			continue
		}
		if _, err := inj.resolveBindingLocked(dep.key, depErrs); err != nil {
			failed = true
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

// jitSource JIT 绑定的来源描述。
func jitSource(key Key) string {
	return "just-in-time binding for " + key.String()
}
