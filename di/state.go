package di

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// injectorState 是一层绑定存储：每个注入器一层，父子注入器共享
// 血统但各有自己的显式绑定、JIT 缓存与黑名单。
//
// 显式绑定在配置阶段结束后固定不变；JIT 缓存与黑名单是可变的，
// 全部可变操作都必须持有整棵注入器树唯一的一把锁（根层的 mu），
// 使 "检查后创建" 在所有层与所有线程间线性化。
type injectorState struct {
	parent *injectorState

	mu sync.Mutex // 仅根层的这把锁被使用

	explicit  map[Key]*binding
	jit       map[Key]*binding
	blacklist map[Key][]string // Key → 认领它的来源，阻止祖先再为它创建 JIT 绑定

	converters []TypeConverter
	proxies    map[reflect.Type]proxyConstructor
	listeners  []ProvisionListener
	implHints  map[reflect.Type]implHint

	// 以下字段仅根层使用
	membersCache map[reflect.Type]*membersInjector
	membersMu    sync.Mutex
	circularSeq  atomic.Int64
}

// implHint 对应注解驱动的实现提示：接口解析时转发到指定实现或 Provider。
type implHint struct {
	implType    reflect.Type // ImplementedBy 等价物
	providerKey Key          // ProvidedBy 等价物
}

func newInjectorState(parent *injectorState) *injectorState {
	s := &injectorState{
		parent:    parent,
		explicit:  make(map[Key]*binding),
		jit:       make(map[Key]*binding),
		blacklist: make(map[Key][]string),
		proxies:   make(map[reflect.Type]proxyConstructor),
		implHints: make(map[reflect.Type]implHint),
	}
	if parent == nil {
		s.membersCache = make(map[reflect.Type]*membersInjector)
	}
	return s
}

// root 返回根层。
func (s *injectorState) root() *injectorState {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// lock / unlock 获取树级锁。
func (s *injectorState) lock()   { s.root().mu.Lock() }
func (s *injectorState) unlock() { s.root().mu.Unlock() }

// nextCircularID 分配一个单调递增、永不复用的循环工厂 id。
func (s *injectorState) nextCircularID() int {
	return int(s.root().circularSeq.Add(1))
}

// explicitBinding 沿层链查找显式绑定（子层优先，未命中逐级上溯）。
func (s *injectorState) explicitBinding(key Key) *binding {
	for layer := s; layer != nil; layer = layer.parent {
		if b, ok := layer.explicit[key]; ok {
			return b
		}
	}
	return nil
}

// jitBinding 沿层链查找 JIT 缓存（根先序由调用方控制，这里只查自己）。
func (s *injectorState) jitBindingLocal(key Key) (*binding, bool) {
	b, ok := s.jit[key]
	return b, ok
}

// putJitBinding 写入本层 JIT 缓存。调用方必须持有树级锁。
func (s *injectorState) putJitBinding(key Key, b *binding) {
	s.jit[key] = b
}

// removeJitBinding 从本层 JIT 缓存移除（回滚路径）。调用方必须持有树级锁。
func (s *injectorState) removeJitBinding(key Key) {
	delete(s.jit, key)
}

// addBlacklist 把 key 记入本层及所有祖先层的黑名单。
// 子注入器认领一个 Key 后，任何祖先都不得再为它创建冲突的 JIT 绑定。
func (s *injectorState) addBlacklist(key Key, source string) {
	for layer := s; layer != nil; layer = layer.parent {
		layer.blacklist[key] = append(layer.blacklist[key], source)
	}
}

// blacklistedAt 返回 key 在本层黑名单中的来源（可能为空）。
func (s *injectorState) blacklistedAt(key Key) ([]string, bool) {
	sources, ok := s.blacklist[key]
	return sources, ok
}

// converterFor 自下而上查找能处理目标类型的转换器。
// 同层内后注册的优先，用户转换器因此可以覆盖内建转换器。
func (s *injectorState) converterFor(target reflect.Type) TypeConverter {
	for layer := s; layer != nil; layer = layer.parent {
		for i := len(layer.converters) - 1; i >= 0; i-- {
			if c := layer.converters[i]; c.Matches(target) {
				return c
			}
		}
	}
	return nil
}

// proxyConstructor 自下而上查找接口的循环代理构造方式。
func (s *injectorState) proxyConstructor(typ reflect.Type) proxyConstructor {
	for layer := s; layer != nil; layer = layer.parent {
		if build, ok := layer.proxies[typ]; ok {
			return build
		}
	}
	return nil
}

// hintFor 自下而上查找类型的实现提示。
func (s *injectorState) hintFor(typ reflect.Type) (implHint, bool) {
	for layer := s; layer != nil; layer = layer.parent {
		if h, ok := layer.implHints[typ]; ok {
			return h, true
		}
	}
	return implHint{}, false
}

// provisionListeners 返回本层及祖先的全部监听器（祖先在前）。
func (s *injectorState) provisionListeners() []ProvisionListener {
	var chain []*injectorState
	for layer := s; layer != nil; layer = layer.parent {
		chain = append(chain, layer)
	}
	var out []ProvisionListener
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].listeners...)
	}
	return out
}
