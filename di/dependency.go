package di

import (
	"fmt"
	"reflect"
)

// Dependency 描述对象图中的一条边：谁（哪个注入点）需要什么（哪个 Key）。
//
// 每次解析尝试都会创建 Dependency，不可变且生命周期很短，
// 仅存在于一次 provisioning 调用或一次构造过程中。
type Dependency struct {
	key      Key
	optional bool // 可选依赖：缺失或为 nil 时不报错

	// 注入点信息，仅用于诊断输出
	consumer reflect.Type // 注入点所属的类型，顶层请求时为 nil
	member   string       // 字段名、方法名或构造函数描述
	index    int          // 参数序号，-1 表示非参数注入点
}

// newDependency 创建顶层请求的 Dependency（没有消费方）。
func newDependency(key Key) Dependency {
	return Dependency{key: key, index: -1}
}

// paramDependency 创建函数/方法参数的 Dependency。
func paramDependency(key Key, consumer reflect.Type, member string, index int) Dependency {
	return Dependency{key: key, consumer: consumer, member: member, index: index}
}

// fieldDependency 创建结构体字段的 Dependency。
func fieldDependency(key Key, optional bool, consumer reflect.Type, field string) Dependency {
	return Dependency{key: key, optional: optional, consumer: consumer, member: field, index: -1}
}

// Key 返回该依赖请求的 Key。
func (d Dependency) Key() Key {
	return d.key
}

// Optional 报告该依赖是否允许缺失 / 为 nil。
func (d Dependency) Optional() bool {
	return d.optional
}

// hasConsumer 报告该依赖是否来自某个注入点（而不是顶层请求）。
func (d Dependency) hasConsumer() bool {
	return d.consumer != nil
}

// String 返回依赖的可读描述，用于错误消息中的 "required by" 链。
func (d Dependency) String() string {
	if d.consumer == nil {
		return d.key.String()
	}
	if d.index >= 0 {
		return fmt.Sprintf("%v (parameter %d of %v.%s)", d.key, d.index, d.consumer, d.member)
	}
	return fmt.Sprintf("%v (field %v.%s)", d.key, d.consumer, d.member)
}
