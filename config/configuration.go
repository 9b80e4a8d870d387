package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Configuration 只读配置视图。
// 键路径支持 ":" 与 "." 两种分隔符，"server:port" 与 "server.port" 等价。
type Configuration interface {
	// Get 取字符串值，键不存在时返回空串
	Get(key string) string
	// GetWithDefault 取字符串值，键不存在时返回 defaultValue
	GetWithDefault(key, defaultValue string) string
	// GetInt 取整数值
	GetInt(key string) (int, error)
	// GetBool 取布尔值
	GetBool(key string) (bool, error)
	// GetSection 取子树作为新的配置视图
	GetSection(key string) Configuration
	// Bind 把键下的子树反序列化到 target
	Bind(key string, target any) error
	// GetAll 返回全部配置的副本
	GetAll() map[string]any
}

// configuration 基于合并后的嵌套 map 的 Configuration 实现。
// 构建路径下 data 构建完毕后只读，MutableConfiguration 会就地写入，读写都持锁。
type configuration struct {
	mu   sync.RWMutex
	data map[string]any
}

func (c *configuration) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value := c.getByPath(key)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	if b, ok := value.(bool); ok {
		return strconv.FormatBool(b)
	}
	return fmt.Sprintf("%v", value)
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *configuration) GetInt(key string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("cannot convert %v to int", value)
}

func (c *configuration) GetBool(key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value := c.getByPath(key)
	if value == nil {
		return false, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("cannot convert %v to bool", value)
}

// GetSection 键不存在或不是对象时返回空视图，调用方不用判空。
func (c *configuration) GetSection(key string) Configuration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.getByPath(key).(map[string]any); ok {
		return &configuration{data: m}
	}
	return &configuration{data: make(map[string]any)}
}

// Bind 通过 JSON 往返把子树绑定到 target，字段匹配遵循 json tag。
func (c *configuration) Bind(key string, target any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var data any = c.data
	if key != "" {
		data = c.getByPath(key)
	}
	if data == nil {
		return fmt.Errorf("key %s not found", key)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]any)
	mergeMaps(result, c.data)
	return result
}

// getByPath 沿分段逐层下钻，路径中断时返回 nil。调用方持有读锁。
func (c *configuration) getByPath(path string) any {
	if path == "" {
		return c.data
	}

	current := any(c.data)
	for _, part := range pathSegments.segments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 把 src 深合并进 dst，同键的嵌套对象递归合并，其余覆盖。
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dstMap, ok := dst[k].(map[string]any); ok {
			if srcMap, ok := v.(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}
