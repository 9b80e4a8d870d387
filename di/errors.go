package di

import (
	"errors"
	"fmt"
	"strings"
)

// errFailed 是内部流程控制哨兵：错误详情已经记录在收集器里，
// 调用链只需要知道 "失败了" 并向上返回；聚合错误在终端边界统一生成。
var errFailed = errors.New("di: resolution failed")

// ErrorKind 错误分类标签。
type ErrorKind int

const (
	// ErrMissingImplementation 找不到 Key 对应的绑定，也无法即时创建
	ErrMissingImplementation ErrorKind = iota
	// ErrAlreadyBound 重复绑定，或与子注入器的绑定冲突
	ErrAlreadyBound
	// ErrRecursiveBinding 绑定链接到自身
	ErrRecursiveBinding
	// ErrJitDisabled 显式绑定模式下请求了未声明的 Key
	ErrJitDisabled
	// ErrCircularDependency 循环依赖且代理被禁用
	ErrCircularDependency
	// ErrCannotProxy 循环依赖落在无法代理的类型上
	ErrCannotProxy
	// ErrNullInjection 非可选依赖收到了 nil
	ErrNullInjection
	// ErrInUserCode 用户的构造函数 / 工厂 / 监听器抛出了错误
	ErrInUserCode
	// ErrInvalidInjectionPoint 注入点不合法（不可设置的字段、签名错误的方法等）
	ErrInvalidInjectionPoint
	// ErrConversion 字符串常量转换失败
	ErrConversion
	// ErrNotConstructable 类型本身无法通过构造注入创建（接口、标量、切片等）
	ErrNotConstructable
	// ErrOther 其他配置错误
	ErrOther
)

// Message 一条结构化的错误记录：分类、文本、来源链和可选的底层原因。
type Message struct {
	Kind    ErrorKind
	Text    string
	Sources []string // 最内层在前的 "requested at / required by" 帧
	Cause   error
}

// Error 实现 error 接口。
func (m Message) Error() string {
	return m.Text
}

// CreationError 在注入器构建阶段收集到的全部配置错误。
type CreationError struct {
	Messages []Message
}

func (e *CreationError) Error() string {
	return formatMessages("di: injector creation errors", e.Messages)
}

// ProvisionError 在单次 provisioning 调用中收集到的全部错误。
type ProvisionError struct {
	Messages []Message
}

func (e *ProvisionError) Error() string {
	return formatMessages("di: provision errors", e.Messages)
}

// Unwrap 当仅有一条消息携带原因时返回它，便于 errors.Is/As。
func (e *ProvisionError) Unwrap() error {
	return singleCause(e.Messages)
}

// Unwrap 同 ProvisionError.Unwrap。
func (e *CreationError) Unwrap() error {
	return singleCause(e.Messages)
}

func singleCause(messages []Message) error {
	var cause error
	for _, m := range messages {
		if m.Cause == nil {
			continue
		}
		if cause != nil {
			return nil // 多个原因时不做选择
		}
		cause = m.Cause
	}
	return cause
}

// formatMessages 渲染一个带编号的错误列表，每条消息附带其来源链。
// 当只有一条消息携带原因时，完整打印一次该原因并交叉引用，
// 避免重复的堆栈噪音。
func formatMessages(heading string, messages []Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d error", heading, len(messages))
	if len(messages) != 1 {
		b.WriteString("s")
	}
	b.WriteString("):\n")

	onlyCause := singleCause(messages)
	for i, m := range messages {
		fmt.Fprintf(&b, "%d) %s\n", i+1, m.Text)
		for _, src := range m.Sources {
			fmt.Fprintf(&b, "     %s\n", src)
		}
		if m.Cause != nil {
			if onlyCause != nil {
				fmt.Fprintf(&b, "   caused by: %v (see below)\n", m.Cause)
			} else {
				fmt.Fprintf(&b, "   caused by: %v\n", m.Cause)
			}
		}
		if i < len(messages)-1 {
			b.WriteString("\n")
		}
	}
	if onlyCause != nil {
		fmt.Fprintf(&b, "\ncause: %+v\n", onlyCause)
	}
	return b.String()
}

// errs 是可链接的错误收集器。
//
// 每个收集器节点持有一个 source，子节点通过 withSource 派生，
// 所有消息都记录在根节点上，因此同一次解析中任何层级添加的
// 错误最终都汇聚到一起，并且每条消息会带上完整的来源链。
type errs struct {
	root   *errs
	parent *errs
	source string

	list []Message // 仅根节点使用
}

// newErrs 创建一个新的根收集器。
func newErrs() *errs {
	e := &errs{}
	e.root = e
	return e
}

// withSource 派生出一个携带新来源帧的子收集器。
func (e *errs) withSource(source string) *errs {
	if source == "" {
		return e
	}
	return &errs{root: e.root, parent: e, source: source}
}

// withDependency 派生出携带依赖帧的子收集器。
func (e *errs) withDependency(dep Dependency) *errs {
	return e.withSource("required by " + dep.String())
}

// sources 返回自内向外的来源链。
func (e *errs) sources() []string {
	var out []string
	for n := e; n != nil && n != n.root; n = n.parent {
		if n.source != "" {
			out = append(out, n.source)
		}
	}
	return out
}

// addKind 记录一条指定分类的消息。
func (e *errs) addKind(kind ErrorKind, format string, args ...any) *errs {
	msg := Message{
		Kind:    kind,
		Text:    fmt.Sprintf(format, args...),
		Sources: e.sources(),
	}
	e.root.append(msg)
	return e
}

// addCause 记录一条携带底层原因的消息。
func (e *errs) addCause(kind ErrorKind, cause error, format string, args ...any) *errs {
	msg := Message{
		Kind:    kind,
		Text:    fmt.Sprintf(format, args...),
		Sources: e.sources(),
		Cause:   cause,
	}
	e.root.append(msg)
	return e
}

// merge 将另一个错误并入本收集器。
// ProvisionError / CreationError 会被拆解为原始消息并追加当前来源链，
// 普通 error 包装为一条 ErrInUserCode 消息。
func (e *errs) merge(err error) *errs {
	switch v := err.(type) {
	case nil:
		return e
	case *ProvisionError:
		e.mergeMessages(v.Messages)
	case *CreationError:
		e.mergeMessages(v.Messages)
	default:
		e.addCause(ErrInUserCode, err, "error in user code: %v", err)
	}
	return e
}

func (e *errs) mergeMessages(messages []Message) {
	chain := e.sources()
	for _, m := range messages {
		m.Sources = append(append([]string{}, m.Sources...), chain...)
		e.root.append(m)
	}
}

func (e *errs) append(m Message) {
	// 只在根上操作
	e.root.list = append(e.root.list, m)
}

// hasErrors 报告是否已收集到错误。
func (e *errs) hasErrors() bool {
	return len(e.root.list) > 0
}

// count 返回已收集的消息数量。
func (e *errs) count() int {
	return len(e.root.list)
}

// toCreationError 在检查点将收集到的消息转换为配置错误，
// 没有消息时返回 nil。
func (e *errs) toCreationError() error {
	if !e.hasErrors() {
		return nil
	}
	return &CreationError{Messages: append([]Message{}, e.root.list...)}
}

// toProvisionError 在检查点将收集到的消息转换为 provisioning 错误，
// 没有消息时返回 nil。
func (e *errs) toProvisionError() error {
	if !e.hasErrors() {
		return nil
	}
	return &ProvisionError{Messages: append([]Message{}, e.root.list...)}
}

// 便捷记录方法，保持各处错误文案一致。

func (e *errs) missingImplementation(key Key) *errs {
	return e.addKind(ErrMissingImplementation, "no implementation for %v was bound", key)
}

func (e *errs) missingImplementationWithHint(key Key) *errs {
	return e.addKind(ErrMissingImplementation,
		"no implementation for %v was bound; an unqualified binding for %v exists but qualified keys never fall back to it",
		key, key.unqualified())
}

func (e *errs) jitDisabled(key Key) *errs {
	return e.addKind(ErrJitDisabled, "explicit bindings are required and %v is not explicitly bound", key)
}

func (e *errs) childBindingAlreadySet(key Key, sources []string) *errs {
	suffix := ""
	if len(sources) > 0 {
		suffix = " at " + strings.Join(sources, ", ")
	}
	return e.addKind(ErrAlreadyBound, "unable to create binding for %v: it was already bound in a child injector%s", key, suffix)
}

func (e *errs) bindingAlreadySet(key Key, source string) *errs {
	return e.addKind(ErrAlreadyBound, "a binding for %v was already configured at %s", key, source)
}

func (e *errs) recursiveBinding(key Key) *errs {
	return e.addKind(ErrRecursiveBinding, "binding for %v links to itself", key)
}

func (e *errs) circularDependencyDisallowed(typ any) *errs {
	return e.addKind(ErrCircularDependency, "circular dependency involving %v was found, and circular proxies are disabled", typ)
}

func (e *errs) cannotProxy(typ any) *errs {
	return e.addKind(ErrCannotProxy, "unable to create a circular proxy for %v: it is not an interface or no proxy was registered for it", typ)
}

func (e *errs) nullInjection(dep Dependency, source string) *errs {
	return e.addKind(ErrNullInjection, "nil returned by binding at %s but %s is not optional", source, dep)
}

func (e *errs) errorInUserCode(cause error, format string, args ...any) *errs {
	return e.addCause(ErrInUserCode, cause, format, args...)
}

func (e *errs) conversionFailed(key Key, value string, cause error) *errs {
	return e.addCause(ErrConversion, cause, "could not convert constant %q to %v", value, key)
}

func (e *errs) notConstructable(typ any) *errs {
	return e.addKind(ErrNotConstructable, "%v cannot be constructed by injection: bind it explicitly or provide a factory", typ)
}
