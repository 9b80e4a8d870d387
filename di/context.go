package di

import (
	"reflect"
)

// callContext 是一次进入引擎的调用栈所独占的构造上下文。
//
// 它按整数 circular factory id 跟踪 "正在构造中" 的状态，用于检测并
// （在启用代理时）化解循环依赖。上下文从不跨 goroutine 共享，因此
// 内部不加锁；通过 enter/exit 引用计数支持同一调用栈上的重入，
// 只有最外层调用退出时才整体拆除。
type callContext struct {
	injector *injector
	errs     *errs

	enters int
	table  *idTable // id → *constructionSlot（启用代理）或 inFlight 标记（禁用代理）
}

// inFlight 禁用代理模式下表中的占位值。
type inFlight struct{}

// constructionSlot 启用代理模式下一次在途构造的状态。
//
// 状态机：Building(无占位) → Building(有占位) → ReferenceSet → 移除。
type constructionSlot struct {
	dep     Dependency
	proxy   any        // 已分配的占位对象，可能为 nil
	publish func(any)  // 完成时把真实对象发布给占位对象
	ref     any        // 构造函数阶段结束后、成员注入期间的真实对象
	hasRef  bool
}

func newCallContext(inj *injector, e *errs) *callContext {
	return &callContext{injector: inj, errs: e, table: newIDTable()}
}

// enter / exit 维护重入计数。exit 返回 true 表示最外层已退出，
// 上下文可以拆除。
func (cc *callContext) enter() {
	cc.enters++
}

func (cc *callContext) exit() bool {
	cc.enters--
	if cc.enters == 0 {
		cc.table = newIDTable()
		return true
	}
	return false
}

// tryStartConstruction 尝试为 id 保留一次构造。
//
// 返回 (nil, nil)：调用方应当真正执行构造。
// 返回 (非 nil, nil)：检测到循环，返回的是占位对象或已设置的真实引用，
// 调用方直接使用它，跳过构造。
// 返回错误：循环被禁止，或请求的类型无法代理。
func (cc *callContext) tryStartConstruction(id int, dep Dependency, e *errs) (any, error) {
	if !cc.injector.options.CircularProxies {
		// 禁用代理：表退化为在途 id 集合
		if cc.table.contains(id) {
			e.withDependency(dep).circularDependencyDisallowed(dep.key.typ)
			return nil, errFailed
		}
		cc.table.put(id, inFlight{})
		return nil, nil
	}

	if v, ok := cc.table.get(id); ok {
		slot := v.(*constructionSlot)
		// 两阶段注入之间的重入：构造函数已经完成，直接交出真实对象
		if slot.hasRef {
			return slot.ref, nil
		}
		// 尚未完成：必须发放占位对象
		if slot.proxy == nil {
			typ := dep.key.typ
			if typ.Kind() != reflect.Interface {
				e.withDependency(dep).cannotProxy(typ)
				return nil, errFailed
			}
			build := cc.injector.state.proxyConstructor(typ)
			if build == nil {
				e.withDependency(dep).cannotProxy(typ)
				return nil, errFailed
			}
			slot.proxy, slot.publish = build()
		}
		return slot.proxy, nil
	}

	cc.table.put(id, &constructionSlot{dep: dep})
	return nil, nil
}

// setReference 在构造函数阶段与成员注入阶段之间记录真实对象，
// 让重入同一 id 的字段注入拿到真实对象而不是占位对象。
func (cc *callContext) setReference(id int, ref any) {
	if !cc.injector.options.CircularProxies {
		return
	}
	if v, ok := cc.table.get(id); ok {
		slot := v.(*constructionSlot)
		slot.ref = ref
		slot.hasRef = true
	}
}

// clearReference 清除 setReference 记录的引用。
func (cc *callContext) clearReference(id int) {
	if !cc.injector.options.CircularProxies {
		return
	}
	if v, ok := cc.table.get(id); ok {
		slot := v.(*constructionSlot)
		slot.ref = nil
		slot.hasRef = false
	}
}

// finishConstruction 终止 id 的在途记录。
// 如果曾发放过占位对象且构造成功，则把真实对象发布给它，
// 使所有早先返回的占位对象从此与真实实例行为一致。
func (cc *callContext) finishConstruction(id int, result any, ok bool) {
	if !cc.injector.options.CircularProxies {
		cc.table.remove(id)
		return
	}
	if v, found := cc.table.get(id); found {
		slot := v.(*constructionSlot)
		if ok && slot.publish != nil {
			slot.publish(result)
		}
		cc.table.remove(id)
	}
}

// pushDependency / popDependency 维护错误消息里的依赖链。
func (cc *callContext) dependencyScope(dep Dependency) *errs {
	return cc.errs.withDependency(dep)
}
