package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 以类型为键的特性集合，
// 存放 WebBuilder、各类客户端工厂等构建产物。
type FeatureCollection struct {
	features sync.Map
}

// Set 按具体类型注册特性
func (fc *FeatureCollection) Set(feature any) {
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// Get 按类型取特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// SetFeature 以 T 为键注册特性。
// Set 按具体类型存储，特性需要以接口类型存取时用这个。
func SetFeature[T any](rt *Runtime, feature T) {
	rt.Features.features.Store(reflect.TypeOf((*T)(nil)).Elem(), feature)
}

// GetFeature 从 Runtime 取 T 类型的特性，未注册时返回零值。
// 键用 (*T)(nil).Elem() 取，接口类型的 T 也能正确命中。
func GetFeature[T any](rt *Runtime) T {
	var zero T
	targetType := reflect.TypeOf((*T)(nil)).Elem()
	if val, ok := rt.Features.Get(targetType); ok {
		return val.(T)
	}
	return zero
}
