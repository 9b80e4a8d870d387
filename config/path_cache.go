package config

import (
	"strings"
	"sync"
)

// pathCache 缓存路径到片段的解析结果。
// 同一组配置键会被反复查询，切分只做一次。
type pathCache struct {
	cache sync.Map // path → []string
}

// segments 把 "a:b.c" 这样的路径切成片段，":" 与 "." 等价。
func (c *pathCache) segments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}
	parts := strings.Split(strings.ReplaceAll(path, ":", "."), ".")
	c.cache.Store(path, parts)
	return parts
}

var pathSegments = &pathCache{}
