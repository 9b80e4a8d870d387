package di

import (
	"fmt"
	"reflect"
)

// Key 唯一标识一个可注入的值：类型 + 可选的限定名称。
//
// Key 是不可变的值对象，在整个引擎中作为 map 的键使用。
// 带名称的 Key 与不带名称的 Key 被视为完全不同的键，
// 解析时不会互相回退。
//
// 示例：
//
//	di.KeyOf[*UserService]()          // 按类型
//	di.NamedKey[*redis.Client]("cache") // 按类型 + 名称
type Key struct {
	typ  reflect.Type
	name string
}

// KeyFor 根据 reflect.Type 创建不带名称的 Key。
func KeyFor(typ reflect.Type) Key {
	return Key{typ: typ}
}

// NamedKeyFor 根据 reflect.Type 和名称创建 Key。
func NamedKeyFor(typ reflect.Type, name string) Key {
	return Key{typ: typ, name: name}
}

// KeyOf 创建类型 T 的 Key（泛型辅助函数）。
func KeyOf[T any]() Key {
	return Key{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// NamedKey 创建类型 T 带名称的 Key。
func NamedKey[T any](name string) Key {
	return Key{typ: reflect.TypeOf((*T)(nil)).Elem(), name: name}
}

// Type 返回 Key 的类型。
func (k Key) Type() reflect.Type {
	return k.typ
}

// Name 返回 Key 的限定名称，未限定时为空字符串。
func (k Key) Name() string {
	return k.name
}

// Named 返回携带指定名称的新 Key。
func (k Key) Named(name string) Key {
	return Key{typ: k.typ, name: name}
}

// unqualified 返回去掉名称的 Key。
func (k Key) unqualified() Key {
	return Key{typ: k.typ}
}

// isZero 报告 Key 是否未初始化。
func (k Key) isZero() bool {
	return k.typ == nil
}

// String 返回 Key 的可读表示。
func (k Key) String() string {
	if k.typ == nil {
		return "Key(<nil>)"
	}
	if k.name == "" {
		return fmt.Sprintf("Key(%v)", k.typ)
	}
	return fmt.Sprintf("Key(%v, name=%q)", k.typ, k.name)
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Token 表示一个依赖注入的令牌，用于区分相同类型的不同依赖。
//
// 使用场景：
//   - 需要注册多个相同类型但用途不同的实例（如多个数据库连接）
//   - 配置值（如字符串、整数等基本类型）
//
// 示例：
//
//	var DBConnectionString = di.NewToken[string]("db-connection")
//	conn, _ := di.GetNamed[string](injector, DBConnectionString.Name())
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token。
//
// 参数 name 用于标识此 Token，应该是唯一的描述性名称。
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Name 返回 Token 的名称。
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 的类型。
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// Key 返回 Token 对应的 Key。
func (t *Token[T]) Key() Key {
	return Key{typ: t.typ, name: t.name}
}

// String 返回 Token 的字符串表示。
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}
